package generate

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/TobiSchelling/KPIMap/internal/catalogue"
	"github.com/TobiSchelling/KPIMap/internal/kpi"
)

// Generator builds KPI records.
type Generator struct {
	rng  *rand.Rand
	seed int64
}

// New creates a generator drawing from rng.
func New(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// NewSeeded creates a generator with its own source. Seed 0 picks a
// time-based seed; Seed reports the one actually used.
func NewSeeded(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed)), seed: seed}
}

// Seed returns the seed the generator was created with, or 0 if it was
// handed an external source.
func (g *Generator) Seed() int64 {
	return g.seed
}

// Records generates one record per entry, preserving catalogue order.
func (g *Generator) Records(entries []catalogue.Entry) ([]*kpi.Record, error) {
	records := make([]*kpi.Record, 0, len(entries))
	for _, e := range entries {
		r, err := g.Record(e)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := kpi.ValidateAll(records); err != nil {
		return nil, err
	}
	return records, nil
}

// Record builds and validates the record for a single catalogue entry.
func (g *Generator) Record(e catalogue.Entry) (*kpi.Record, error) {
	rag := kpi.RAGFor(e.Name, e.Unit, e.Value, e.Target)
	history := g.TrendData()
	trend := kpi.ClassifyTrend(e.Value, history)
	gap := kpi.Gap(e.Value, e.Target)

	owner := roster[g.rng.Intn(len(roster))]
	owner.Role = "Primary Owner"
	owner.AvatarColor = g.choice(avatarColors)

	r := &kpi.Record{
		ID:           e.ID,
		Name:         e.Name,
		Value:        e.Value,
		Target:       e.Target,
		Unit:         e.Unit,
		RAG:          rag,
		Trend:        trend,
		Pillar:       e.Pillar,
		MacroProcess: e.MacroProcess,
		Category:     e.Category,
		Context: kpi.Context{
			Definition:        fmt.Sprintf("%s measures the performance and effectiveness of %s in %s", e.Name, strings.ToLower(e.Name), e.Category),
			BusinessImpact:    fmt.Sprintf("Critical metric for %s affecting overall %s performance and revenue", e.MacroProcess, e.Pillar),
			IndustryBenchmark: fmt.Sprintf("%s %s is the industry target benchmark for spine specialty practices", formatNumber(e.Target), e.Unit),
		},
		CurrentState: kpi.CurrentState{
			Status:          rag,
			Value:           e.Value,
			Target:          e.Target,
			Gap:             gap,
			GapPercentage:   kpi.GapPercentage(e.Value, e.Target),
			FinancialImpact: fmt.Sprintf("$%s impact per month", humanize.Comma(int64(math.Round(gap*float64(g.intn(500, 5000)))))),
		},
		TrendData:          history,
		RootCauses:         g.RootCauses(),
		PredictiveInsights: g.PredictiveInsights(e.Value, history),
		TrendAnalysis: kpi.TrendAnalysis{
			CurrentTrend:  capitalize(string(trend)),
			TrendStrength: g.choice(trendStrengths),
			Volatility:    g.choice(impactLevels),
			KeyInsights:   fmt.Sprintf("%s shows %s trajectory requiring %s", e.Name, trend, attentionFor(rag)),
		},
		Dependencies: kpi.Dependencies{
			Upstream:    numbered(2, func(i int) string { return fmt.Sprintf("%s upstream dependency %d", e.MacroProcess, i) }),
			Downstream:  numbered(2, func(i int) string { return fmt.Sprintf("Downstream impact on %s metric %d", e.Pillar, i) }),
			PeerMetrics: numbered(2, func(i int) string { return fmt.Sprintf("Related %s metric %d", e.Category, i) }),
		},
		PeopleAccountable:   []kpi.Person{owner},
		RecommendedActions:  g.RecommendedActions(rag),
		ContributingFactors: g.ContributingFactors(),
	}

	if err := kpi.Validate(r); err != nil {
		return nil, err
	}
	return r, nil
}

// TrendData is a bounded random walk of kpi.HistoryLen samples, seeded from a
// base in [70, 95], stepping by up to ±5 and clamped to [0, 100].
func (g *Generator) TrendData() []float64 {
	base := g.uniform(70, 95)
	out := make([]float64, 0, kpi.HistoryLen)
	for i := 0; i < kpi.HistoryLen; i++ {
		v := kpi.Clamp(base+g.uniform(-5, 5), 0, 100)
		out = append(out, kpi.Round(v, 1))
		base = v
	}
	return out
}

// RootCauses draws three distinct causes from the canned pool.
func (g *Generator) RootCauses() []kpi.RootCause {
	const n = 3
	causes := make([]kpi.RootCause, 0, n)
	for _, idx := range g.rng.Perm(len(causePool))[:n] {
		c := causePool[idx]
		causes = append(causes, kpi.RootCause{
			Cause:      c.cause,
			Confidence: g.intn(c.confLo, c.confHi),
			Impact:     c.impact,
			DataPoints: g.intn(c.dataLo, c.dataHi),
		})
	}
	return causes
}

// PredictiveInsights picks a pattern from the recent mean against value and
// projects three scenarios around value. Probabilities are independent draws.
func (g *Generator) PredictiveInsights(value float64, history []float64) kpi.PredictiveInsights {
	recent := kpi.RecentMean(history)

	var pattern string
	var best, likely, worst float64
	switch {
	case recent > value:
		pattern = "Improving"
		best = value + g.uniform(3, 8)
		likely = value + g.uniform(1, 4)
		worst = value - g.uniform(0, 2)
	case recent < value:
		pattern = "Deteriorating"
		best = value + g.uniform(0, 3)
		likely = value - g.uniform(1, 4)
		worst = value - g.uniform(3, 8)
	default:
		pattern = "Stabilizing"
		best = value + g.uniform(2, 5)
		likely = value + g.uniform(-1, 1)
		worst = value - g.uniform(2, 5)
	}

	scenario := func(name string, v float64, lo, hi int) kpi.Scenario {
		return kpi.Scenario{Name: name, Value: kpi.Round(kpi.Clamp(v, 0, 100), 1), Probability: g.intn(lo, hi)}
	}

	return kpi.PredictiveInsights{
		Pattern:    pattern,
		Confidence: g.intn(75, 90),
		Scenarios: []kpi.Scenario{
			scenario("Best Case", best, 20, 30),
			scenario("Most Likely", likely, 45, 60),
			scenario("Worst Case", worst, 15, 25),
		},
		LeadingIndicators: g.sample(leadingIndicatorPool, 3),
	}
}

// RecommendedActions branches on status: red gets two escalations, amber
// one, green a single maintenance action.
func (g *Generator) RecommendedActions(rag kpi.RAG) []kpi.Action {
	templates := actionsByRAG[rag]
	actions := make([]kpi.Action, 0, len(templates))
	for _, t := range templates {
		dollars := g.intn(t.impactLo, t.impactHi) / 1000 * 1000
		actions = append(actions, kpi.Action{
			Priority:       t.priority,
			Action:         t.action,
			Timeline:       t.timeline,
			Owner:          t.owner,
			ExpectedImpact: fmt.Sprintf("$%s monthly improvement", humanize.Comma(int64(dollars))),
			Resources:      t.resources,
			SuccessMetrics: t.successMetrics,
		})
	}
	return actions
}

func (g *Generator) ContributingFactors() kpi.ContributingFactors {
	factors := func(names []string) []kpi.Factor {
		out := make([]kpi.Factor, 0, len(names))
		for _, name := range names {
			out = append(out, kpi.Factor{Factor: name, Impact: g.choice(impactLevels)})
		}
		return out
	}
	return kpi.ContributingFactors{
		Internal: factors(internalFactors),
		External: factors(externalFactors),
	}
}

// uniform draws from [lo, hi).
func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// intn draws an integer from [lo, hi] inclusive.
func (g *Generator) intn(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

func (g *Generator) choice(values []string) string {
	return values[g.rng.Intn(len(values))]
}

func (g *Generator) sample(values []string, n int) []string {
	out := make([]string, 0, n)
	for _, idx := range g.rng.Perm(len(values))[:n] {
		out = append(out, values[idx])
	}
	return out
}

func attentionFor(rag kpi.RAG) string {
	switch rag {
	case kpi.Red:
		return "immediate attention"
	case kpi.Amber:
		return "close monitoring"
	default:
		return "maintenance"
	}
}

func numbered(n int, f func(i int) string) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, f(i))
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatNumber(v float64) string {
	return humanize.Ftoa(v)
}
