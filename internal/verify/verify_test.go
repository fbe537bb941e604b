package verify

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const goodDoc = `{
  "tree": {"id": "root", "name": "Ops", "type": "root", "children": [
    {"id": "pillar_a", "name": "A", "type": "pillar", "children": [
      {"id": "k1", "name": "First", "type": "kpi"},
      {"id": "k2", "name": "Second", "type": "kpi"}
    ]}
  ]},
  "nodes": [
    {"id": "k2", "name": "Second"},
    {"id": "k1", "name": "First",
     "context": {}, "current_state": {}, "root_causes": [],
     "predictive_insights": {"scenarios": []},
     "trend_analysis": {"key_insights": "steady"}}
  ]
}`

func TestVerifyPasses(t *testing.T) {
	report, err := Verify([]byte(goodDoc))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !report.Passed() {
		t.Fatalf("expected pass, failed: %+v", report.Failed())
	}
	if report.LeafID != "k1" || !report.FromNodes {
		t.Errorf("expected k1 resolved from nodes, got %s (fromNodes=%v)", report.LeafID, report.FromNodes)
	}
	if diff := cmp.Diff([]string{"Ops", "A", "First"}, report.Path); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}
	if len(report.Checks) != len(RequiredFields)+2 {
		t.Errorf("expected %d checks, got %d", len(RequiredFields)+2, len(report.Checks))
	}
}

func TestVerifyReportsMissingFields(t *testing.T) {
	doc := `{
	  "tree": {"name": "r", "type": "root", "children": [{"id": "k1", "name": "K", "type": "kpi"}]},
	  "nodes": [{"id": "k1", "context": {}, "trend_analysis": {"key_insights": 3},
	             "predictive_insights": {"scenarios": {"best": 1}}}]
	}`
	report, err := Verify([]byte(doc))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.Passed() {
		t.Fatal("expected failure")
	}
	var failed []string
	for _, c := range report.Failed() {
		failed = append(failed, c.Name)
	}
	want := []string{
		"current_state",
		"root_causes",
		"trend_analysis.key_insights is string",
		"predictive_insights.scenarios is array",
	}
	if diff := cmp.Diff(want, failed); diff != "" {
		t.Errorf("failed checks mismatch (-want +got):\n%s", diff)
	}
}

func TestVerifyFallsBackToTreeNode(t *testing.T) {
	doc := `{"tree": {"name": "r", "type": "root", "children": [
	  {"id": "k9", "name": "K", "type": "kpi", "context": {}}]}}`
	report, err := Verify([]byte(doc))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.FromNodes {
		t.Error("expected tree node to be used when nodes is absent")
	}
	if report.Checks[0].Name != "context" || !report.Checks[0].Passed {
		t.Errorf("expected context present on tree node, got %+v", report.Checks[0])
	}
}

func TestVerifyNoKPI(t *testing.T) {
	_, err := Verify([]byte(`{"tree": {"name": "r", "type": "root", "children": []}, "nodes": []}`))
	if !errors.Is(err, ErrNoKPI) {
		t.Errorf("expected ErrNoKPI, got %v", err)
	}
}

func TestVerifyBadInput(t *testing.T) {
	if _, err := Verify([]byte("nope")); err == nil {
		t.Error("expected decode error")
	}
	if _, err := Verify([]byte(`{"nodes": []}`)); err == nil {
		t.Error("expected error for missing tree")
	}
}
