package summary

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/KPIMap/internal/document"
	"github.com/TobiSchelling/KPIMap/internal/kpi"
)

// KPIRef identifies a KPI that needs attention.
type KPIRef struct {
	ID            string
	Name          string
	Pillar        string
	Value         float64
	Target        float64
	Unit          string
	GapPercentage float64
	Trend         kpi.Trend
}

// Pillar holds the status breakdown for one pillar.
type Pillar struct {
	Name  string
	Green int
	Amber int
	Red   int
}

// Total returns the number of KPIs in the pillar.
func (p Pillar) Total() int {
	return p.Green + p.Amber + p.Red
}

// Summary is the condensed view of a document.
type Summary struct {
	Organization string
	Version      string
	Total        int
	Green        int
	Amber        int
	Red          int
	// Pillars are in first-seen record order.
	Pillars []Pillar
	// Attention lists red KPIs in record order.
	Attention []KPIRef
}

// Summarize counts statuses per pillar and collects red KPIs.
func Summarize(doc *document.Document) Summary {
	s := Summary{
		Organization: doc.Organization,
		Version:      doc.Version,
		Total:        len(doc.Nodes),
	}

	index := make(map[string]int)
	for _, r := range doc.Nodes {
		i, ok := index[r.Pillar]
		if !ok {
			i = len(s.Pillars)
			index[r.Pillar] = i
			s.Pillars = append(s.Pillars, Pillar{Name: r.Pillar})
		}
		p := &s.Pillars[i]

		switch r.RAG {
		case kpi.Green:
			p.Green++
			s.Green++
		case kpi.Amber:
			p.Amber++
			s.Amber++
		case kpi.Red:
			p.Red++
			s.Red++
			s.Attention = append(s.Attention, KPIRef{
				ID:            r.ID,
				Name:          r.Name,
				Pillar:        r.Pillar,
				Value:         r.Value,
				Target:        r.Target,
				Unit:          r.Unit,
				GapPercentage: r.CurrentState.GapPercentage,
				Trend:         r.Trend,
			})
		}
	}
	return s
}

// Headline is a one-sentence overview.
func (s Summary) Headline() string {
	if s.Total == 0 {
		return "No KPIs in this document."
	}
	return fmt.Sprintf("%d KPIs across %d pillars: %d green, %d amber, %d red.",
		s.Total, len(s.Pillars), s.Green, s.Amber, s.Red)
}

// Markdown renders the summary as a markdown report.
func Markdown(s Summary) string {
	var sections []string

	title := "# KPI Status"
	if s.Organization != "" {
		title = "# " + s.Organization
	}
	sections = append(sections, title+"\n\n"+s.Headline())

	if len(s.Pillars) > 0 {
		rows := []string{
			"| Pillar | Green | Amber | Red | Total |",
			"|---|---:|---:|---:|---:|",
		}
		for _, p := range s.Pillars {
			rows = append(rows, fmt.Sprintf("| %s | %d | %d | %d | %d |", p.Name, p.Green, p.Amber, p.Red, p.Total()))
		}
		sections = append(sections, "## By Pillar\n\n"+strings.Join(rows, "\n"))
	}

	if len(s.Attention) > 0 {
		var bullets []string
		for _, k := range s.Attention {
			bullets = append(bullets, fmt.Sprintf("- **%s** (%s): %s vs target %s, %.1f%% off, trending %s",
				k.Name, k.Pillar, withUnit(k.Value, k.Unit), withUnit(k.Target, k.Unit), k.GapPercentage, k.Trend))
		}
		sections = append(sections, "## Needs Attention\n\n"+strings.Join(bullets, "\n"))
	} else if s.Total > 0 {
		sections = append(sections, "## Needs Attention\n\nNo KPIs are red.")
	}

	if s.Version != "" {
		sections = append(sections, fmt.Sprintf("_Dataset version `%s`_", s.Version))
	}

	return strings.Join(sections, "\n\n") + "\n"
}

func withUnit(v float64, unit string) string {
	num := strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	switch unit {
	case "":
		return num
	case "%":
		return num + "%"
	case "$":
		return "$" + num
	}
	return num + " " + unit
}
