package kpi

import (
	"errors"
	"testing"
)

func TestDirectionOf(t *testing.T) {
	tests := []struct {
		name, unit string
		want       Direction
	}{
		{"Clean Claim Rate", "%", HigherIsBetter},
		{"No-Show Rate", "%", HigherIsBetter},
		{"Days to First Appointment", "days", LowerIsBetter},
		{"Rooming Time Efficiency", "minutes", LowerIsBetter},
		{"Turnaround", "Hours", LowerIsBetter},
		{"Claim Submission Lag", "days", LowerIsBetter},
		{"Insurance Clearance Delay", "cases", LowerIsBetter},
		{"API Latency p95", "ms", LowerIsBetter},
		{"RVU per Hour", "RVU", HigherIsBetter},
		{"Intake Satisfaction Score", "rating", HigherIsBetter},
		{"Flagged Claim Rate", "%", HigherIsBetter},
		{"Posting Lag-Time", "count", LowerIsBetter},
		{"Lag (Commercial Payers)", "count", LowerIsBetter},
	}
	for _, tt := range tests {
		if got := DirectionOf(tt.name, tt.unit); got != tt.want {
			t.Errorf("DirectionOf(%q, %q) = %v, want %v", tt.name, tt.unit, got, tt.want)
		}
	}
}

func TestClassifyRAGHigherIsBetter(t *testing.T) {
	tests := []struct {
		value, target float64
		want          RAG
	}{
		{96, 100, Green},
		{100, 100, Green},
		{120, 100, Green},
		{94.9, 100, Amber},
		{86, 100, Amber},
		{84.9, 100, Red},
		{0, 100, Red},
	}
	for _, tt := range tests {
		if got := ClassifyRAG(tt.value, tt.target, HigherIsBetter); got != tt.want {
			t.Errorf("ClassifyRAG(%v, %v, higher) = %q, want %q", tt.value, tt.target, got, tt.want)
		}
	}
}

func TestClassifyRAGLowerIsBetter(t *testing.T) {
	tests := []struct {
		value, target float64
		want          RAG
	}{
		{1, 10, Green},
		{10, 10, Green},
		{10.4, 10, Green},
		{10.6, 10, Amber},
		{11.4, 10, Amber},
		{11.6, 10, Red},
		{5.5, 3.0, Red},
	}
	for _, tt := range tests {
		if got := ClassifyRAG(tt.value, tt.target, LowerIsBetter); got != tt.want {
			t.Errorf("ClassifyRAG(%v, %v, lower) = %q, want %q", tt.value, tt.target, got, tt.want)
		}
	}
}

// No-Show Rate is literally higher-is-better under the unit rule even though
// fewer no-shows is the real goal; the rule is applied as written.
func TestNoShowRateClassifiedByUnitRule(t *testing.T) {
	if got := RAGFor("No-Show Rate", "%", 14.5, 10.0); got != Green {
		t.Errorf("expected green, got %q", got)
	}
}

func TestRecentMeanAndTrend(t *testing.T) {
	history := []float64{70, 72, 80, 81, 82, 83}
	if got, want := RecentMean(history), 82.0; got != want {
		t.Fatalf("RecentMean = %v, want %v", got, want)
	}
	if got := ClassifyTrend(90, history); got != Up {
		t.Errorf("expected up, got %q", got)
	}
	if got := ClassifyTrend(50, history); got != Down {
		t.Errorf("expected down, got %q", got)
	}
	if got := ClassifyTrend(82, history); got != Stable {
		t.Errorf("expected stable, got %q", got)
	}
}

func TestRecentMeanShortHistory(t *testing.T) {
	if got := RecentMean(nil); got != 0 {
		t.Errorf("expected 0 for empty history, got %v", got)
	}
	if got := RecentMean([]float64{4, 6}); got != 5 {
		t.Errorf("expected 5, got %v", got)
	}
}

func TestGap(t *testing.T) {
	if got := Gap(14.5, 10); got != 4.5 {
		t.Errorf("expected 4.5, got %v", got)
	}
	if got := Gap(85, 95); got != 10 {
		t.Errorf("expected 10, got %v", got)
	}
	if got := GapPercentage(85, 95); got != 10.5 {
		t.Errorf("expected 10.5, got %v", got)
	}
	if got := GapPercentage(0.2, 0); got != 0 {
		t.Errorf("expected 0 for zero target, got %v", got)
	}
}

func TestValidateAcceptsConsistentRecord(t *testing.T) {
	r := validRecord()
	if err := Validate(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsPartialRecord(t *testing.T) {
	r := validRecord()
	r.Context.Definition = ""
	if err := Validate(r); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}

	r = validRecord()
	r.TrendData = r.TrendData[:5]
	if err := Validate(r); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord for short history, got %v", err)
	}

	r = validRecord()
	r.TrendData[0] = 101
	if err := Validate(r); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord for out-of-range sample, got %v", err)
	}
}

func TestValidateRejectsInconsistentRAG(t *testing.T) {
	r := validRecord()
	r.RAG = Red
	r.CurrentState.Status = Red
	if err := Validate(r); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestValidateRejectsInconsistentTrend(t *testing.T) {
	r := validRecord()
	r.Trend = Up
	if err := Validate(r); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestValidateAllRejectsDuplicates(t *testing.T) {
	if err := ValidateAll([]*Record{validRecord(), validRecord()}); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord for duplicate ids, got %v", err)
	}
}

func validRecord() *Record {
	history := []float64{80, 81, 82, 90, 91, 92}
	return &Record{
		ID:           "kpi_1",
		Name:         "Clean Claim Rate",
		Value:        87,
		Target:       94,
		Unit:         "%",
		RAG:          Amber,
		Trend:        Down,
		Pillar:       "Revenue Cycle Management",
		MacroProcess: "Claim Creation",
		Category:     "Clean Claims",
		Context: Context{
			Definition:        "d",
			BusinessImpact:    "b",
			IndustryBenchmark: "i",
		},
		CurrentState: CurrentState{
			Status:          Amber,
			Value:           87,
			Target:          94,
			Gap:             7,
			GapPercentage:   7.4,
			FinancialImpact: "$7,000 impact per month",
		},
		TrendData: history,
		RootCauses: []RootCause{
			{Cause: "a", Confidence: 90, Impact: "High", DataPoints: 900},
			{Cause: "b", Confidence: 80, Impact: "Medium", DataPoints: 500},
			{Cause: "c", Confidence: 70, Impact: "Medium", DataPoints: 300},
		},
		PredictiveInsights: PredictiveInsights{
			Pattern:    "Improving",
			Confidence: 80,
			Scenarios: []Scenario{
				{Name: "Best Case", Value: 93, Probability: 25},
				{Name: "Most Likely", Value: 89, Probability: 50},
				{Name: "Worst Case", Value: 86, Probability: 20},
			},
			LeadingIndicators: []string{"System utilization"},
		},
		TrendAnalysis: TrendAnalysis{
			CurrentTrend:  "Down",
			TrendStrength: "Strong",
			Volatility:    "Low",
			KeyInsights:   "k",
		},
		Dependencies: Dependencies{
			Upstream:    []string{"u"},
			Downstream:  []string{"d"},
			PeerMetrics: []string{"p"},
		},
		PeopleAccountable: []Person{{
			Name:        "Emily Davis",
			Title:       "Billing Manager",
			Department:  "Revenue Cycle",
			Email:       "edavis@nyss.com",
			Role:        "Primary Owner",
			AvatarColor: "#4A90E2",
		}},
		RecommendedActions: []Action{{
			Priority:       "High",
			Action:         "a",
			Timeline:       "2 weeks",
			Owner:          "Training Manager",
			ExpectedImpact: "$20K monthly improvement",
			SuccessMetrics: "s",
		}},
		ContributingFactors: ContributingFactors{
			Internal: []Factor{{Factor: "Process efficiency", Impact: "High"}},
			External: []Factor{{Factor: "Market conditions", Impact: "Low"}},
		},
	}
}
