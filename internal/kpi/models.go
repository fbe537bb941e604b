package kpi

// RAG is the red/amber/green health of a metric relative to its target.
type RAG string

const (
	Green RAG = "green"
	Amber RAG = "amber"
	Red   RAG = "red"
)

// Trend is the direction of the current value against recent history.
type Trend string

const (
	Up     Trend = "up"
	Down   Trend = "down"
	Stable Trend = "stable"
)

// HistoryLen is the number of synthetic trend samples on every record.
const HistoryLen = 6

// Record is a fully populated KPI leaf with all ten intelligence layers.
type Record struct {
	ID           string  `json:"id" validate:"required"`
	Name         string  `json:"name" validate:"required"`
	Value        float64 `json:"value"`
	Target       float64 `json:"target"`
	Unit         string  `json:"unit"`
	RAG          RAG     `json:"rag" validate:"oneof=green amber red"`
	Trend        Trend   `json:"trend" validate:"oneof=up down stable"`
	Pillar       string  `json:"pillar" validate:"required"`
	MacroProcess string  `json:"macro_process" validate:"required"`
	Category     string  `json:"category" validate:"required"`

	Context             Context             `json:"context"`
	CurrentState        CurrentState        `json:"current_state"`
	TrendData           []float64           `json:"trend_data" validate:"len=6,dive,gte=0,lte=100"`
	RootCauses          []RootCause         `json:"root_causes" validate:"len=3,dive"`
	PredictiveInsights  PredictiveInsights  `json:"predictive_insights"`
	TrendAnalysis       TrendAnalysis       `json:"trend_analysis"`
	Dependencies        Dependencies        `json:"dependencies"`
	PeopleAccountable   []Person            `json:"people_accountable" validate:"min=1,dive"`
	RecommendedActions  []Action            `json:"recommended_actions" validate:"min=1,dive"`
	ContributingFactors ContributingFactors `json:"contributing_factors"`
}

// Context explains what the KPI measures and why it matters.
type Context struct {
	Definition        string `json:"definition" validate:"required"`
	BusinessImpact    string `json:"business_impact" validate:"required"`
	IndustryBenchmark string `json:"industry_benchmark" validate:"required"`
}

// CurrentState is the snapshot of value against target.
type CurrentState struct {
	Status          RAG     `json:"status" validate:"oneof=green amber red"`
	Value           float64 `json:"value"`
	Target          float64 `json:"target"`
	Gap             float64 `json:"gap" validate:"gte=0"`
	GapPercentage   float64 `json:"gap_percentage"`
	FinancialImpact string  `json:"financial_impact" validate:"required"`
}

// RootCause is one canned causal explanation with its supporting evidence.
type RootCause struct {
	Cause      string `json:"cause" validate:"required"`
	Confidence int    `json:"confidence" validate:"gte=0,lte=100"`
	Impact     string `json:"impact" validate:"oneof=High Medium Low"`
	DataPoints int    `json:"data_points" validate:"gt=0"`
}

// PredictiveInsights is the projected pattern with best, likely and worst scenarios.
// Scenario probabilities are drawn independently and need not sum to 100.
type PredictiveInsights struct {
	Pattern           string     `json:"pattern" validate:"oneof=Improving Deteriorating Stabilizing"`
	Confidence        int        `json:"confidence" validate:"gte=0,lte=100"`
	Scenarios         []Scenario `json:"scenarios" validate:"len=3,dive"`
	LeadingIndicators []string   `json:"leading_indicators" validate:"min=1,dive,required"`
}

// Scenario is a single projected outcome.
type Scenario struct {
	Name        string  `json:"name" validate:"required"`
	Value       float64 `json:"value" validate:"gte=0,lte=100"`
	Probability int     `json:"probability" validate:"gte=0,lte=100"`
}

type TrendAnalysis struct {
	CurrentTrend  string `json:"current_trend" validate:"required"`
	TrendStrength string `json:"trend_strength" validate:"required"`
	Volatility    string `json:"volatility" validate:"required"`
	KeyInsights   string `json:"key_insights" validate:"required"`
}

type Dependencies struct {
	Upstream    []string `json:"upstream" validate:"dive,required"`
	Downstream  []string `json:"downstream" validate:"dive,required"`
	PeerMetrics []string `json:"peer_metrics" validate:"dive,required"`
}

// Person is an accountable owner drawn from the roster.
type Person struct {
	Name        string `json:"name" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Department  string `json:"department" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Role        string `json:"role" validate:"required"`
	AvatarColor string `json:"avatar_color" validate:"omitempty,hexcolor"`
}

// Action is a prioritized recommendation.
type Action struct {
	Priority       string `json:"priority" validate:"oneof=Critical High Medium Low"`
	Action         string `json:"action" validate:"required"`
	Timeline       string `json:"timeline" validate:"required"`
	Owner          string `json:"owner" validate:"required"`
	ExpectedImpact string `json:"expected_impact" validate:"required"`
	Resources      string `json:"resources,omitempty"`
	SuccessMetrics string `json:"success_metrics" validate:"required"`
}

type Factor struct {
	Factor string `json:"factor" validate:"required"`
	Impact string `json:"impact" validate:"oneof=High Medium Low"`
}

type ContributingFactors struct {
	Internal []Factor `json:"internal" validate:"min=1,dive"`
	External []Factor `json:"external" validate:"min=1,dive"`
}
