package verify

import (
	"encoding/json"
	"errors"
	"fmt"
)

// RequiredFields must be present on the sampled record.
var RequiredFields = []string{
	"context",
	"current_state",
	"root_causes",
	"predictive_insights",
	"trend_analysis",
}

// ErrNoKPI is returned when the tree contains no KPI leaf.
var ErrNoKPI = errors.New("no kpi node in tree")

// Check is the outcome of one field or shape assertion.
type Check struct {
	Name   string
	Passed bool
	Detail string
}

// Report describes a verification pass over one sampled leaf.
type Report struct {
	LeafID   string
	LeafName string
	// Path is the names from the root down to the sampled leaf.
	Path []string
	// FromNodes is true when the record was resolved from the flat nodes
	// array rather than the tree node itself.
	FromNodes bool
	Checks    []Check
}

// Passed reports whether every check passed.
func (r *Report) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Failed returns the failing checks.
func (r *Report) Failed() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// Verify walks the document's tree depth-first to the first node with
// type "kpi" and checks the corresponding record. Field mismatches are
// reported in the Report; only unreadable input is an error.
func Verify(raw []byte) (*Report, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	root, ok := doc["tree"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document has no tree")
	}

	leaf, path := findFirstKPI(root, nil)
	if leaf == nil {
		return nil, ErrNoKPI
	}

	report := &Report{Path: path}
	report.LeafID, _ = leaf["id"].(string)
	report.LeafName, _ = leaf["name"].(string)

	record := leaf
	if nodes, ok := doc["nodes"].([]any); ok {
		for _, n := range nodes {
			m, ok := n.(map[string]any)
			if ok && m["id"] == report.LeafID {
				record = m
				report.FromNodes = true
				break
			}
		}
	}

	for _, field := range RequiredFields {
		_, present := record[field]
		c := Check{Name: field, Passed: present}
		if !present {
			c.Detail = "missing"
		}
		report.Checks = append(report.Checks, c)
	}

	report.Checks = append(report.Checks,
		shapeCheck(record, "trend_analysis", "key_insights", "string", func(v any) bool {
			_, ok := v.(string)
			return ok
		}),
		shapeCheck(record, "predictive_insights", "scenarios", "array", func(v any) bool {
			_, ok := v.([]any)
			return ok
		}),
	)

	return report, nil
}

func findFirstKPI(n map[string]any, path []string) (map[string]any, []string) {
	name, _ := n["name"].(string)
	path = append(path, name)
	if n["type"] == "kpi" {
		return n, path
	}
	children, _ := n["children"].([]any)
	for _, c := range children {
		child, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if found, p := findFirstKPI(child, path[:len(path):len(path)]); found != nil {
			return found, p
		}
	}
	return nil, nil
}

func shapeCheck(record map[string]any, section, field, kind string, ok func(any) bool) Check {
	c := Check{Name: section + "." + field + " is " + kind}
	parent, isMap := record[section].(map[string]any)
	if !isMap {
		c.Detail = section + " missing"
		return c
	}
	v, present := parent[field]
	switch {
	case !present:
		c.Detail = "missing"
	case !ok(v):
		c.Detail = fmt.Sprintf("got %T", v)
	default:
		c.Passed = true
	}
	return c
}
