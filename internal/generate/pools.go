package generate

import "github.com/TobiSchelling/KPIMap/internal/kpi"

type causeTemplate struct {
	cause          string
	impact         string
	confLo, confHi int
	dataLo, dataHi int
}

var causePool = []causeTemplate{
	{"Incomplete documentation process", "High", 85, 95, 800, 1500},
	{"Insurance verification delays", "Medium", 75, 90, 500, 1000},
	{"Staff training gaps", "Medium", 70, 85, 300, 700},
	{"System integration issues", "High", 80, 92, 600, 1200},
	{"Payer policy changes", "High", 75, 88, 400, 900},
	{"Provider workflow bottlenecks", "Medium", 78, 90, 350, 800},
}

var leadingIndicatorPool = []string{
	"System utilization",
	"Staff availability",
	"Protocol adherence",
	"Market conditions",
	"Technology adoption",
}

var roster = []kpi.Person{
	{Name: "Jennifer Martinez", Title: "Director of Patient Access", Department: "Front Office", Email: "jmartinez@nyss.com"},
	{Name: "Robert Chen", Title: "Revenue Cycle Manager", Department: "RCM Operations", Email: "rchen@nyss.com"},
	{Name: "Sarah Johnson", Title: "Clinical Operations Director", Department: "Clinical", Email: "sjohnson@nyss.com"},
	{Name: "Michael Brown", Title: "Surgical Coordinator", Department: "OR Management", Email: "mbrown@nyss.com"},
	{Name: "Emily Davis", Title: "Billing Manager", Department: "Revenue Cycle", Email: "edavis@nyss.com"},
	{Name: "David Wilson", Title: "Coding Supervisor", Department: "HIM", Email: "dwilson@nyss.com"},
	{Name: "Lisa Anderson", Title: "Verification Specialist Lead", Department: "Patient Access", Email: "landerson@nyss.com"},
	{Name: "James Taylor", Title: "Provider Relations Manager", Department: "Clinical Quality", Email: "jtaylor@nyss.com"},
}

var avatarColors = []string{"#4A90E2", "#7B68EE", "#50C878", "#FF6B6B", "#FFA500", "#20B2AA"}

var (
	impactLevels    = []string{"High", "Medium", "Low"}
	trendStrengths  = []string{"Strong", "Moderate", "Weak"}
	internalFactors = []string{"Process efficiency", "Staff training", "Technology adoption"}
	externalFactors = []string{"Market conditions", "Regulatory environment", "Payer policies"}
)

// actionTemplate is a canned recommendation; the expected impact is drawn
// from [impactLo, impactHi] dollars per month.
type actionTemplate struct {
	priority           string
	action             string
	timeline           string
	owner              string
	resources          string
	successMetrics     string
	impactLo, impactHi int
}

var actionsByRAG = map[kpi.RAG][]actionTemplate{
	kpi.Red: {
		{
			priority:       "Critical",
			action:         "Implement urgent corrective protocol",
			timeline:       "1 week",
			owner:          "Operations Director",
			resources:      "Dedicated team, 2-3 FTEs",
			successMetrics: "Target achievement >95%",
			impactLo:       150_000,
			impactHi:       250_000,
		},
		{
			priority:       "High",
			action:         "Deploy automation system",
			timeline:       "2-3 weeks",
			owner:          "IT Manager + Operations",
			resources:      "System integration, $25K budget",
			successMetrics: "Process time reduced by 50%",
			impactLo:       40_000,
			impactHi:       120_000,
		},
	},
	kpi.Amber: {
		{
			priority:       "High",
			action:         "Enhance training and protocols",
			timeline:       "2 weeks",
			owner:          "Training Manager",
			resources:      "Training materials, 20 hrs/week",
			successMetrics: "Staff certification >95%",
			impactLo:       15_000,
			impactHi:       60_000,
		},
	},
	kpi.Green: {
		{
			priority:       "Medium",
			action:         "Maintain and optimize current processes",
			timeline:       "Ongoing",
			owner:          "Operations Manager",
			resources:      "Regular monitoring",
			successMetrics: "Maintain green status",
			impactLo:       5_000,
			impactHi:       20_000,
		},
	},
}
