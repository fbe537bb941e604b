package pipeline

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/TobiSchelling/KPIMap/internal/catalogue"
	"github.com/TobiSchelling/KPIMap/internal/config"
	"github.com/TobiSchelling/KPIMap/internal/database"
	"github.com/TobiSchelling/KPIMap/internal/document"
	"github.com/TobiSchelling/KPIMap/internal/generate"
	"github.com/TobiSchelling/KPIMap/internal/kpi"
	"github.com/TobiSchelling/KPIMap/internal/tree"
	"github.com/TobiSchelling/KPIMap/internal/verify"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	RunID  string
	Seed   int64
	Output string
	Steps  []StepResult
	// Diff is the unified tree diff, set by RebuildTree when requested.
	Diff     string
	Document *document.Document
}

// Failed reports whether any step returned an error.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Options override config for a single generation run. Zero values fall
// back to config.
type Options struct {
	Seed int64
	// RandomSeed ignores the configured seed and picks a time-based one.
	RandomSeed bool
	Levels     tree.Levels
	Output     string
	Version    string
}

// Pipeline orchestrates generation and tree rebuilds.
type Pipeline struct {
	cfg    *config.Config
	db     *database.DB
	logger *zap.Logger
}

// New creates a new pipeline. db may be nil, in which case runs are not
// recorded in the ledger.
func New(cfg *config.Config, db *database.DB, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, db: db, logger: logger}
}

func (p *Pipeline) resolve(opts Options) (Options, error) {
	if opts.Seed == 0 && !opts.RandomSeed {
		opts.Seed = p.cfg.Generator.Seed
	}
	if opts.Levels == "" {
		levels, err := tree.ParseLevels(p.cfg.Tree.Levels)
		if err != nil {
			return opts, err
		}
		opts.Levels = levels
	}
	if opts.Output == "" {
		opts.Output = p.cfg.Output.Path
	}
	if opts.Version == "" {
		opts.Version = p.cfg.Generator.Version
		if opts.Levels == tree.TwoLevel {
			opts.Version = document.VersionSimple
		}
	}
	return opts, nil
}

func (p *Pipeline) builder(levels tree.Levels) *tree.Builder {
	return tree.NewBuilder(tree.Options{
		Levels:      levels,
		PillarOrder: p.cfg.Tree.PillarOrder,
		RootID:      p.cfg.Organization.RootID,
		RootName:    p.cfg.Organization.RootName,
	}, p.logger)
}

// Run executes the generation pipeline: catalogue, generate, build tree,
// write document, record run, verify.
func (p *Pipeline) Run(ctx context.Context, opts Options) *Result {
	r := &Result{}

	opts, err := p.resolve(opts)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Options", Err: err})
		return r
	}
	r.Output = opts.Output

	// Step 1: Catalogue
	p.logger.Info("Step 1/6: Loading catalogue")
	entries, err := catalogue.Load(p.cfg.Generator.Catalogue)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Catalogue", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Catalogue",
		Summary: fmt.Sprintf("Loaded %d KPI definitions across %d pillars", len(entries), countPillars(entries)),
	})
	if ctxDone(ctx, r) {
		return r
	}

	// Step 2: Generate
	p.logger.Info("Step 2/6: Generating records")
	gen := generate.NewSeeded(opts.Seed)
	r.Seed = gen.Seed()
	records, err := gen.Records(entries)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Generate", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Generate",
		Summary: fmt.Sprintf("Generated %d records (seed %d): %s", len(records), r.Seed, ragLine(records)),
	})
	if ctxDone(ctx, r) {
		return r
	}

	// Step 3: Build tree
	root, step := p.runBuild(opts.Levels, records)
	r.Steps = append(r.Steps, step)

	// Step 4: Write document
	doc := document.New(p.cfg.Organization.Name, p.cfg.Organization.Scope, opts.Version, records, root)
	step = p.runWrite(opts.Output, doc)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}
	r.Document = doc

	// Step 5: Record run
	step = p.runRecord(&database.Run{
		Kind:       database.KindGenerate,
		Version:    opts.Version,
		Levels:     string(opts.Levels),
		Seed:       r.Seed,
		TotalNodes: doc.TotalNodes,
		OutputPath: opts.Output,
	}, records, &r.RunID)
	r.Steps = append(r.Steps, step)

	// Step 6: Verify
	r.Steps = append(r.Steps, p.runVerify(opts.Output, r.RunID))

	return r
}

// DryRun shows what would be done without executing.
func (p *Pipeline) DryRun(opts Options) *Result {
	r := &Result{}

	opts, err := p.resolve(opts)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Options", Err: err})
		return r
	}
	r.Output = opts.Output

	entries, err := catalogue.Load(p.cfg.Generator.Catalogue)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Catalogue", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Catalogue",
		Summary: fmt.Sprintf("[dry-run] %d KPI definitions across %d pillars", len(entries), countPillars(entries)),
	})

	seed := "time-based seed"
	if opts.Seed != 0 {
		seed = fmt.Sprintf("seed %d", opts.Seed)
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Generate",
		Summary: fmt.Sprintf("[dry-run] Would generate %d records with %s", len(entries), seed),
	})

	r.Steps = append(r.Steps, StepResult{
		Name:    "Build tree",
		Summary: fmt.Sprintf("[dry-run] Would build %s tree (version %s)", opts.Levels, opts.Version),
	})

	action := "create"
	if _, err := os.Stat(opts.Output); err == nil {
		action = "overwrite"
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Write document",
		Summary: fmt.Sprintf("[dry-run] Would %s %s", action, opts.Output),
	})

	if p.db != nil {
		stats, err := p.db.GetStats()
		if err == nil {
			r.Steps = append(r.Steps, StepResult{
				Name:    "Record run",
				Summary: fmt.Sprintf("[dry-run] Ledger holds %d runs", stats.TotalRuns),
			})
		}
	}

	return r
}

// RebuildOptions configure a tree rebuild.
type RebuildOptions struct {
	Input string
	// Output defaults to Input.
	Output string
	Levels tree.Levels
	Diff   bool
}

// RebuildTree regenerates the tree of an existing document from its flat
// nodes and writes the document back.
func (p *Pipeline) RebuildTree(ctx context.Context, opts RebuildOptions) *Result {
	r := &Result{}
	if opts.Input == "" {
		opts.Input = p.cfg.Output.Path
	}
	if opts.Output == "" {
		opts.Output = opts.Input
	}
	if opts.Levels == "" {
		levels, err := tree.ParseLevels(p.cfg.Tree.Levels)
		if err != nil {
			r.Steps = append(r.Steps, StepResult{Name: "Options", Err: err})
			return r
		}
		opts.Levels = levels
	}
	r.Output = opts.Output

	p.logger.Info("Loading document", zap.String("path", opts.Input))
	doc, err := document.Load(opts.Input)
	if err == nil {
		err = kpi.ValidateAll(doc.Nodes)
	}
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Load document", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Load document",
		Summary: fmt.Sprintf("Loaded %d records from %s (version %s)", len(doc.Nodes), opts.Input, doc.Version),
	})
	if ctxDone(ctx, r) {
		return r
	}

	old := doc.Tree
	root, step := p.runBuild(opts.Levels, doc.Nodes)
	r.Steps = append(r.Steps, step)

	if opts.Diff {
		diff, err := document.DiffTrees(old, root)
		summary := "Tree unchanged"
		if diff != "" {
			summary = "Tree changed"
		}
		r.Diff = diff
		r.Steps = append(r.Steps, StepResult{Name: "Diff", Summary: summary, Err: err})
	}

	doc.Tree = root
	doc.TotalNodes = len(doc.Nodes)
	doc.Version = document.VersionFixed
	if opts.Levels == tree.TwoLevel {
		doc.Version = document.VersionSimple
	}
	step = p.runWrite(opts.Output, doc)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}
	r.Document = doc

	r.Steps = append(r.Steps, p.runRecord(&database.Run{
		Kind:       database.KindTree,
		Version:    doc.Version,
		Levels:     string(opts.Levels),
		TotalNodes: doc.TotalNodes,
		OutputPath: opts.Output,
	}, doc.Nodes, &r.RunID))

	return r
}

func (p *Pipeline) runBuild(levels tree.Levels, records []*kpi.Record) (*tree.Node, StepResult) {
	p.logger.Info("Step 3/6: Building tree", zap.String("levels", string(levels)))
	root := p.builder(levels).Build(records)
	counts := tree.Count(root)
	summary := fmt.Sprintf("Built %s tree: %d pillars, %d KPIs", levels, counts[tree.TypePillar], counts[tree.TypeKPI])
	if levels == tree.FourLevel {
		summary = fmt.Sprintf("Built %s tree: %d pillars, %d macro processes, %d categories, %d KPIs",
			levels, counts[tree.TypePillar], counts[tree.TypeMacro], counts[tree.TypeCategory], counts[tree.TypeKPI])
	}
	return root, StepResult{Name: "Build tree", Summary: summary}
}

func (p *Pipeline) runWrite(path string, doc *document.Document) StepResult {
	p.logger.Info("Step 4/6: Writing document", zap.String("path", path))
	if err := document.Write(path, doc); err != nil {
		return StepResult{Name: "Write document", Err: err}
	}
	return StepResult{
		Name:    "Write document",
		Summary: fmt.Sprintf("Wrote %d records to %s", doc.TotalNodes, path),
	}
}

func (p *Pipeline) runRecord(run *database.Run, records []*kpi.Record, runID *string) StepResult {
	p.logger.Info("Step 5/6: Recording run")
	if p.db == nil {
		return StepResult{Name: "Record run", Summary: "Skipped (no ledger)"}
	}
	id, err := p.db.InsertRun(run, records)
	if err != nil {
		return StepResult{Name: "Record run", Err: err}
	}
	*runID = id
	return StepResult{Name: "Record run", Summary: fmt.Sprintf("Recorded run %s", database.ShortID(id))}
}

func (p *Pipeline) runVerify(path, runID string) StepResult {
	p.logger.Info("Step 6/6: Verifying output")
	report, err := VerifyFile(path)
	if err != nil {
		return StepResult{Name: "Verify", Err: err}
	}
	if p.db != nil && runID != "" {
		if err := p.db.SetVerified(runID, report.Passed()); err != nil {
			p.logger.Warn("recording verification failed", zap.Error(err))
		}
	}
	if !report.Passed() {
		return StepResult{
			Name: "Verify",
			Err:  fmt.Errorf("sample leaf %s failed %d of %d checks", report.LeafID, len(report.Failed()), len(report.Checks)),
		}
	}
	return StepResult{
		Name:    "Verify",
		Summary: fmt.Sprintf("Sample leaf %s passed all %d checks", report.LeafID, len(report.Checks)),
	}
}

// VerifyFile runs the structural check against a document on disk.
func VerifyFile(path string) (*verify.Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return verify.Verify(raw)
}

func ctxDone(ctx context.Context, r *Result) bool {
	if err := ctx.Err(); err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Cancelled", Err: err})
		return true
	}
	return false
}

func countPillars(entries []catalogue.Entry) int {
	seen := make(map[string]bool)
	for _, e := range entries {
		seen[e.Pillar] = true
	}
	return len(seen)
}

func ragLine(records []*kpi.Record) string {
	counts := make(map[kpi.RAG]int)
	for _, r := range records {
		counts[r.RAG]++
	}
	return fmt.Sprintf("%d green, %d amber, %d red", counts[kpi.Green], counts[kpi.Amber], counts[kpi.Red])
}
