package database

// Run kinds.
const (
	KindGenerate = "generate"
	KindTree     = "tree"
)

// Run is one recorded invocation that wrote a document.
type Run struct {
	ID         string
	Kind       string
	Version    string
	Levels     string
	Seed       int64
	TotalNodes int
	OutputPath string
	// Verified is nil until the structural check has run.
	Verified  *bool
	CreatedAt *string
}

// KPIStatus is the headline status of one KPI in one run.
type KPIStatus struct {
	RunID  string
	KPIID  string
	Name   string
	Pillar string
	RAG    string
	Trend  string
	Value  float64
	Target float64
}

// StatusPoint is a KPI's status in a given run, for history listings.
type StatusPoint struct {
	RunID     string
	CreatedAt *string
	RAG       string
	Trend     string
	Value     float64
}

// PillarRAG counts statuses within one pillar.
type PillarRAG struct {
	Pillar string
	Green  int
	Amber  int
	Red    int
}

// Total returns the number of KPIs counted.
func (p PillarRAG) Total() int {
	return p.Green + p.Amber + p.Red
}

// Stats contains aggregate ledger statistics.
type Stats struct {
	TotalRuns    int
	GenerateRuns int
	TreeRuns     int
	DistinctKPIs int
	LastRunAt    string
}
