package tree

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/TobiSchelling/KPIMap/internal/kpi"
)

// Levels selects the tree shape.
type Levels string

const (
	// TwoLevel attaches KPIs directly under pillars.
	TwoLevel Levels = "2-level"
	// FourLevel keeps macro process and category between pillar and KPI.
	FourLevel Levels = "4-level"
)

// ParseLevels validates a levels string from config or flags.
func ParseLevels(s string) (Levels, error) {
	switch Levels(s) {
	case TwoLevel, FourLevel:
		return Levels(s), nil
	case "":
		return FourLevel, nil
	}
	return "", fmt.Errorf("unknown tree levels %q (want %s or %s)", s, TwoLevel, FourLevel)
}

// Node types.
const (
	TypeRoot     = "root"
	TypePillar   = "pillar"
	TypeMacro    = "macro"
	TypeCategory = "category"
	TypeKPI      = "kpi"
)

// Node is one element of the hierarchy. KPI leaves carry a denormalized copy
// of the headline figures so a front end can render the tree alone.
type Node struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Level    int     `json:"level"`
	Type     string  `json:"type"`
	Children []*Node `json:"children,omitempty"`

	Value  *float64  `json:"value,omitempty"`
	Target *float64  `json:"target,omitempty"`
	Unit   string    `json:"unit,omitempty"`
	RAG    kpi.RAG   `json:"rag,omitempty"`
	Trend  kpi.Trend `json:"trend,omitempty"`
}

// Options configures a Builder.
type Options struct {
	Levels      Levels
	PillarOrder []string
	RootID      string
	RootName    string
}

// Builder assembles trees from records.
type Builder struct {
	opts   Options
	logger *zap.Logger
}

// NewBuilder creates a builder. A nil logger discards warnings.
func NewBuilder(opts Options, logger *zap.Logger) *Builder {
	if opts.Levels == "" {
		opts.Levels = FourLevel
	}
	if opts.RootID == "" {
		opts.RootID = "root"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{opts: opts, logger: logger}
}

// group is an insertion-ordered map from name to children.
type group[T any] struct {
	keys  []string
	items map[string]T
}

func newGroup[T any]() *group[T] {
	return &group[T]{items: make(map[string]T)}
}

// get returns the entry for key, creating it with mk on first sight.
func (g *group[T]) get(key string, mk func() T) T {
	v, ok := g.items[key]
	if !ok {
		v = mk()
		g.items[key] = v
		g.keys = append(g.keys, key)
	}
	return v
}

type categories = group[[]*kpi.Record]
type macros = group[*categories]

// Build groups records by pillar, macro process and category in catalogue
// order and assembles the tree. Pillars named in PillarOrder come first in
// that order; a listed pillar with no records is skipped with a warning.
// Remaining pillars follow in the order they were first seen.
func (b *Builder) Build(records []*kpi.Record) *Node {
	pillars := newGroup[*macros]()
	for _, r := range records {
		ms := pillars.get(r.Pillar, newGroup[*categories])
		cs := ms.get(r.MacroProcess, newGroup[[]*kpi.Record])
		cs.items[r.Category] = append(cs.get(r.Category, func() []*kpi.Record { return nil }), r)
	}

	root := &Node{
		ID:       b.opts.RootID,
		Name:     b.opts.RootName,
		Level:    0,
		Type:     TypeRoot,
		Children: []*Node{},
	}

	for _, pillar := range b.pillarSequence(pillars) {
		ms := pillars.items[pillar]
		pn := &Node{ID: PillarID(pillar), Name: pillar, Level: 1, Type: TypePillar, Children: []*Node{}}

		for _, macro := range ms.keys {
			cs := ms.items[macro]
			if b.opts.Levels == TwoLevel {
				for _, cat := range cs.keys {
					for _, r := range cs.items[cat] {
						pn.Children = append(pn.Children, leaf(r, 2))
					}
				}
				continue
			}

			mn := &Node{ID: MacroID(macro), Name: macro, Level: 2, Type: TypeMacro, Children: []*Node{}}
			for _, cat := range cs.keys {
				cn := &Node{ID: CategoryID(cat), Name: cat, Level: 3, Type: TypeCategory, Children: []*Node{}}
				for _, r := range cs.items[cat] {
					cn.Children = append(cn.Children, leaf(r, 4))
				}
				mn.Children = append(mn.Children, cn)
			}
			pn.Children = append(pn.Children, mn)
		}

		root.Children = append(root.Children, pn)
	}

	b.logger.Debug("tree built",
		zap.String("levels", string(b.opts.Levels)),
		zap.Int("pillars", len(root.Children)),
		zap.Int("kpis", len(records)))

	return root
}

func (b *Builder) pillarSequence(pillars *group[*macros]) []string {
	seq := make([]string, 0, len(pillars.keys))
	listed := make(map[string]bool, len(b.opts.PillarOrder))
	for _, name := range b.opts.PillarOrder {
		if listed[name] {
			continue
		}
		listed[name] = true
		if _, ok := pillars.items[name]; !ok {
			b.logger.Warn("pillar not found in records, skipping", zap.String("pillar", name))
			continue
		}
		seq = append(seq, name)
	}
	for _, name := range pillars.keys {
		if listed[name] {
			continue
		}
		if len(b.opts.PillarOrder) > 0 {
			b.logger.Warn("pillar missing from order list, appending", zap.String("pillar", name))
		}
		seq = append(seq, name)
	}
	return seq
}

func leaf(r *kpi.Record, level int) *Node {
	value, target := r.Value, r.Target
	return &Node{
		ID:     r.ID,
		Name:   r.Name,
		Level:  level,
		Type:   TypeKPI,
		Value:  &value,
		Target: &target,
		Unit:   r.Unit,
		RAG:    r.RAG,
		Trend:  r.Trend,
	}
}

var slugReplacer = strings.NewReplacer(" ", "_", "&", "and")

// Slug lower-cases name, replaces spaces with underscores and & with "and".
func Slug(name string) string {
	return slugReplacer.Replace(strings.ToLower(name))
}

func PillarID(name string) string   { return "pillar_" + Slug(name) }
func MacroID(name string) string    { return "macro_" + Slug(name) }
func CategoryID(name string) string { return "cat_" + Slug(name) }
