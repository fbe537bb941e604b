package generate

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/TobiSchelling/KPIMap/internal/catalogue"
	"github.com/TobiSchelling/KPIMap/internal/kpi"
)

func defaultEntries(t *testing.T) []catalogue.Entry {
	t.Helper()
	entries, err := catalogue.Default()
	if err != nil {
		t.Fatalf("loading catalogue: %v", err)
	}
	return entries
}

func TestRecordsFullCatalogue(t *testing.T) {
	entries := defaultEntries(t)
	records, err := NewSeeded(42).Records(entries)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != len(entries) {
		t.Fatalf("expected %d records, got %d", len(entries), len(records))
	}
	for i, r := range records {
		if r.ID != entries[i].ID {
			t.Errorf("record %d: expected id %s, got %s", i, entries[i].ID, r.ID)
		}
	}
}

func TestSameSeedSameDataset(t *testing.T) {
	entries := defaultEntries(t)[:20]
	a, err := New(rand.New(rand.NewSource(7))).Records(entries)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(rand.New(rand.NewSource(7))).Records(entries)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different records (-a +b):\n%s", diff)
	}
}

func TestNewSeededPicksSeed(t *testing.T) {
	if g := NewSeeded(0); g.Seed() == 0 {
		t.Error("expected a non-zero seed when none is given")
	}
	if g := NewSeeded(99); g.Seed() != 99 {
		t.Errorf("expected seed 99, got %d", g.Seed())
	}
	if g := New(rand.New(rand.NewSource(1))); g.Seed() != 0 {
		t.Errorf("expected 0 for an external source, got %d", g.Seed())
	}
}

func TestTrendDataBounded(t *testing.T) {
	g := NewSeeded(3)
	for i := 0; i < 500; i++ {
		data := g.TrendData()
		if len(data) != kpi.HistoryLen {
			t.Fatalf("expected %d samples, got %d", kpi.HistoryLen, len(data))
		}
		for _, v := range data {
			if v < 0 || v > 100 {
				t.Fatalf("sample out of range: %v", v)
			}
			if kpi.Round(v, 1) != v {
				t.Fatalf("sample not rounded to one decimal: %v", v)
			}
		}
	}
}

func TestRootCausesDistinct(t *testing.T) {
	g := NewSeeded(5)
	for i := 0; i < 100; i++ {
		causes := g.RootCauses()
		if len(causes) != 3 {
			t.Fatalf("expected 3 causes, got %d", len(causes))
		}
		seen := map[string]bool{}
		for _, c := range causes {
			if seen[c.Cause] {
				t.Fatalf("duplicate cause %q", c.Cause)
			}
			seen[c.Cause] = true
		}
	}
}

func TestRecommendedActionsByStatus(t *testing.T) {
	g := NewSeeded(11)

	red := g.RecommendedActions(kpi.Red)
	if len(red) != 2 || red[0].Priority != "Critical" || red[1].Priority != "High" {
		t.Errorf("unexpected red actions: %+v", red)
	}
	amber := g.RecommendedActions(kpi.Amber)
	if len(amber) != 1 || amber[0].Priority != "High" {
		t.Errorf("unexpected amber actions: %+v", amber)
	}
	green := g.RecommendedActions(kpi.Green)
	if len(green) != 1 || green[0].Action != "Maintain and optimize current processes" {
		t.Errorf("unexpected green actions: %+v", green)
	}
	for _, a := range append(append(red, amber...), green...) {
		if !strings.HasPrefix(a.ExpectedImpact, "$") {
			t.Errorf("expected dollar figure, got %q", a.ExpectedImpact)
		}
	}
}

func TestPredictiveInsightsPattern(t *testing.T) {
	g := NewSeeded(13)
	history := []float64{70, 70, 70, 80, 80, 80}

	if got := g.PredictiveInsights(60, history).Pattern; got != "Improving" {
		t.Errorf("expected Improving when recent mean is above value, got %s", got)
	}
	if got := g.PredictiveInsights(90, history).Pattern; got != "Deteriorating" {
		t.Errorf("expected Deteriorating when recent mean is below value, got %s", got)
	}
	p := g.PredictiveInsights(80, history)
	if p.Pattern != "Stabilizing" {
		t.Errorf("expected Stabilizing, got %s", p.Pattern)
	}
	names := []string{p.Scenarios[0].Name, p.Scenarios[1].Name, p.Scenarios[2].Name}
	if diff := cmp.Diff([]string{"Best Case", "Most Likely", "Worst Case"}, names); diff != "" {
		t.Errorf("scenario names mismatch (-want +got):\n%s", diff)
	}
	if len(p.LeadingIndicators) != 3 {
		t.Errorf("expected 3 leading indicators, got %d", len(p.LeadingIndicators))
	}
}

func TestRecordDerivedFields(t *testing.T) {
	entry := catalogue.Entry{
		Pillar:       "Patient Access & Intake",
		MacroProcess: "Scheduling",
		Category:     "Appointment Management",
		ID:           "kpi_x",
		Name:         "Days to First Appointment",
		Value:        12,
		Target:       7,
		Unit:         "days",
	}
	r, err := NewSeeded(21).Record(entry)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if r.RAG != kpi.Red {
		t.Errorf("expected red for lower-is-better overshoot, got %s", r.RAG)
	}
	if r.CurrentState.Gap != 5 {
		t.Errorf("expected gap 5, got %v", r.CurrentState.Gap)
	}
	if r.CurrentState.GapPercentage != 71.4 {
		t.Errorf("expected gap_percentage 71.4, got %v", r.CurrentState.GapPercentage)
	}
	if len(r.RecommendedActions) != 2 {
		t.Errorf("expected 2 actions for red, got %d", len(r.RecommendedActions))
	}
	if !strings.Contains(r.TrendAnalysis.KeyInsights, "immediate attention") {
		t.Errorf("unexpected key insights: %q", r.TrendAnalysis.KeyInsights)
	}
	if r.PeopleAccountable[0].Role != "Primary Owner" {
		t.Errorf("expected Primary Owner, got %q", r.PeopleAccountable[0].Role)
	}
}
