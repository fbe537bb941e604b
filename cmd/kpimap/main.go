package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TobiSchelling/KPIMap/internal/config"
	"github.com/TobiSchelling/KPIMap/internal/database"
	"github.com/TobiSchelling/KPIMap/internal/document"
	"github.com/TobiSchelling/KPIMap/internal/kpi"
	"github.com/TobiSchelling/KPIMap/internal/logging"
	"github.com/TobiSchelling/KPIMap/internal/pipeline"
	"github.com/TobiSchelling/KPIMap/internal/server"
	"github.com/TobiSchelling/KPIMap/internal/summary"
	"github.com/TobiSchelling/KPIMap/internal/tree"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     = zap.NewNop()
)

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "kpimap",
	Short:        "Synthetic KPI tree datasets",
	Long:         "kpimap generates a pillar > macro process > category > KPI tree of synthetic operations metrics and writes it as a JSON document for dashboards.",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logger, err = logging.New(cfg.Logging.Level, verbose)
		if err != nil {
			return err
		}
		zap.ReplaceGlobals(logger)
		logger.Debug("config loaded", zap.String("path", path))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("kpimap", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/kpimap/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to set the organization, pillar order, and output paths.")
		return nil
	},
}

// --- generate command ---

var (
	dryRun     bool
	seed       int64
	randomSeed bool
	levelsFlag string
	outputFlag string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the KPI dataset: catalogue -> records -> tree -> document -> ledger -> verify",
	RunE: func(cmd *cobra.Command, args []string) error {
		levels, err := parseLevelsFlag()
		if err != nil {
			return err
		}
		opts := pipeline.Options{Seed: seed, RandomSeed: randomSeed, Levels: levels, Output: outputFlag}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(cfg, db, logger)

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(opts)
		} else {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			result = pipe.Run(ctx, opts)
			stop()
		}
		printSteps(result)

		if result.Failed() {
			return errors.New("generation failed")
		}
		if !dryRun {
			fmt.Printf("\nGenerated %s. Run 'kpimap summary' for a status overview.\n", result.Output)
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
	generateCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 uses config, then a time-based seed)")
	generateCmd.Flags().BoolVar(&randomSeed, "random-seed", false, "Ignore the configured seed and use a time-based one")
	generateCmd.MarkFlagsMutuallyExclusive("seed", "random-seed")
	generateCmd.Flags().StringVar(&levelsFlag, "levels", "", "Tree shape: 2-level or 4-level (default from config)")
	generateCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output path (default from config)")
}

// --- tree command ---

var (
	treeInput string
	treeDiff  bool
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Rebuild the tree of an existing document from its flat KPI list",
	RunE: func(cmd *cobra.Command, args []string) error {
		levels, err := parseLevelsFlag()
		if err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result := pipeline.New(cfg, db, logger).RebuildTree(ctx, pipeline.RebuildOptions{
			Input:  treeInput,
			Output: outputFlag,
			Levels: levels,
			Diff:   treeDiff,
		})
		printSteps(result)

		if result.Diff != "" {
			fmt.Println()
			fmt.Print(result.Diff)
		}
		if result.Failed() {
			return errors.New("tree rebuild failed")
		}
		return nil
	},
}

func init() {
	treeCmd.Flags().StringVar(&levelsFlag, "levels", "", "Tree shape: 2-level or 4-level (default from config)")
	treeCmd.Flags().StringVarP(&treeInput, "input", "i", "", "Document to rebuild (default from config)")
	treeCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Where to write the result (default: input)")
	treeCmd.Flags().BoolVar(&treeDiff, "diff", false, "Print a unified diff of the old and new tree")
}

// --- verify command ---

var verifyCmd = &cobra.Command{
	Use:   "verify [document]",
	Short: "Check that the first KPI leaf carries every intelligence layer",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Output.Path
		if len(args) == 1 {
			path = args[0]
		}

		report, err := pipeline.VerifyFile(path)
		if err != nil {
			return err
		}

		fmt.Printf("Sample leaf: %s (%s)\n", render(styles.Bold, report.LeafName), report.LeafID)
		fmt.Println(render(styles.Muted, "  "+strings.Join(report.Path, " > ")))
		if !report.FromNodes {
			fmt.Println(render(styles.Muted, "  record not found in nodes; checked the tree node"))
		}
		fmt.Println()
		for _, c := range report.Checks {
			line := fmt.Sprintf("  %s %s", passIcon(c.Passed), c.Name)
			if c.Detail != "" {
				line += render(styles.Muted, " ("+c.Detail+")")
			}
			fmt.Println(line)
		}

		if !report.Passed() {
			return fmt.Errorf("verification failed: %d of %d checks", len(report.Failed()), len(report.Checks))
		}
		fmt.Println("\nAll checks passed.")
		return nil
	},
}

// --- export command ---

var exportInput string

var exportCmd = &cobra.Command{
	Use:   "export [mirror...]",
	Short: "Copy the document to mirror paths (default from config)",
	RunE: func(cmd *cobra.Command, args []string) error {
		src := exportInput
		if src == "" {
			src = cfg.Output.Path
		}
		mirrors := args
		if len(mirrors) == 0 {
			mirrors = cfg.Export.Mirrors
		}
		if len(mirrors) == 0 {
			fmt.Println("No mirrors configured.")
			return nil
		}

		written, err := document.Export(src, mirrors)
		for _, m := range written {
			fmt.Printf("  %s %s\n", passIcon(true), m)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Exported %s to %d mirror(s).\n", src, len(written))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportInput, "input", "i", "", "Document to export (default from config)")
}

// --- summary command ---

var summaryMarkdown bool

var summaryCmd = &cobra.Command{
	Use:   "summary [document]",
	Short: "Show RAG status by pillar",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Output.Path
		if len(args) == 1 {
			path = args[0]
		}
		doc, err := document.Load(path)
		if err != nil {
			return err
		}
		s := summary.Summarize(doc)

		if summaryMarkdown {
			fmt.Print(summary.Markdown(s))
			return nil
		}

		fmt.Println(render(styles.Title, s.Organization))
		fmt.Println(render(styles.Muted, s.Headline()))
		fmt.Println()

		var rows []string
		rows = append(rows, render(styles.Bold, fmt.Sprintf("%-32s %6s %6s %6s", "Pillar", "Green", "Amber", "Red")))
		for _, p := range s.Pillars {
			rows = append(rows, fmt.Sprintf("%-32s %s %s %s", p.Name,
				render(styles.Green, fmt.Sprintf("%6d", p.Green)),
				render(styles.Amber, fmt.Sprintf("%6d", p.Amber)),
				render(styles.Red, fmt.Sprintf("%6d", p.Red))))
		}
		table := strings.Join(rows, "\n")
		if styled {
			table = styles.Box.Render(table)
		}
		fmt.Println(table)

		if len(s.Attention) > 0 {
			fmt.Println()
			fmt.Println(render(styles.Bold, "Needs attention:"))
			for _, k := range s.Attention {
				fmt.Printf("  %s %s %s\n", render(ragStyle(kpi.Red), "●"), k.Name,
					render(styles.Muted, fmt.Sprintf("(%s, %.1f%% off target)", k.Pillar, k.GapPercentage)))
			}
		}
		return nil
	},
}

func init() {
	summaryCmd.Flags().BoolVar(&summaryMarkdown, "markdown", false, "Print the summary as markdown")
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ledger and output status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Output:")
		fmt.Printf("  Path: %s\n", cfg.Output.Path)
		if doc, err := document.Load(cfg.Output.Path); err == nil {
			fmt.Printf("  Version: %s\n", doc.Version)
			fmt.Printf("  KPIs: %d\n", doc.TotalNodes)
		} else {
			fmt.Println("  Not generated yet")
		}
		fmt.Println("\nLedger:")
		fmt.Printf("  Path: %s\n", db.Path())
		fmt.Printf("  Runs: %d (%d generate, %d tree)\n", stats.TotalRuns, stats.GenerateRuns, stats.TreeRuns)
		fmt.Printf("  Distinct KPIs tracked: %d\n", stats.DistinctKPIs)
		if stats.LastRunAt != "" {
			fmt.Printf("  Last run: %s\n", database.FormatRunTime(&stats.LastRunAt))
		}

		latest, err := db.GetLatestRun()
		if err != nil {
			return fmt.Errorf("getting latest run: %w", err)
		}
		if latest == nil {
			return nil
		}
		counts, err := db.GetRAGCounts(latest.ID)
		if err != nil {
			return fmt.Errorf("counting statuses: %w", err)
		}
		fmt.Printf("\nLatest run %s (%s, %s):\n", database.ShortID(latest.ID), latest.Kind, latest.Version)
		for _, c := range counts {
			fmt.Printf("  %-32s %s %s %s\n", c.Pillar,
				render(styles.Green, fmt.Sprintf("%4d", c.Green)),
				render(styles.Amber, fmt.Sprintf("%4d", c.Amber)),
				render(styles.Red, fmt.Sprintf("%4d", c.Red)))
		}
		return nil
	},
}

// --- history command ---

var (
	historyLimit int
	historyKPI   string
	historyRun   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs, or one KPI's status across runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if historyRun != "" {
			run, err := db.GetRun(historyRun)
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run %s not found", historyRun)
			}
			statuses, err := db.GetKPIStatuses(run.ID)
			if err != nil {
				return err
			}
			fmt.Printf("Run %s  %s  %s  %s\n\n", database.ShortID(run.ID), database.FormatRunTime(run.CreatedAt), run.Kind, run.Version)
			for _, st := range statuses {
				fmt.Printf("  %-12s %s  %-6s %-40s %s\n", st.KPIID,
					render(ragStyle(kpi.RAG(st.RAG)), fmt.Sprintf("%-5s", st.RAG)), st.Trend, st.Name,
					render(styles.Muted, st.Pillar))
			}
			return nil
		}

		if historyKPI != "" {
			points, err := db.GetKPIHistory(historyKPI, historyLimit)
			if err != nil {
				return err
			}
			if len(points) == 0 {
				fmt.Printf("No history for %s.\n", historyKPI)
				return nil
			}
			for _, p := range points {
				fmt.Printf("  %s  %s  %s  %-6s %g\n", database.ShortID(p.RunID), database.FormatRunTime(p.CreatedAt),
					render(ragStyle(kpi.RAG(p.RAG)), fmt.Sprintf("%-5s", p.RAG)), p.Trend, p.Value)
			}
			return nil
		}

		runs, err := db.GetRuns(historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet. Run 'kpimap generate' first.")
			return nil
		}
		for _, r := range runs {
			verified := "-"
			if r.Verified != nil {
				verified = passIcon(*r.Verified)
			}
			fmt.Printf("  %s  %s  %-8s %-7s %4d KPIs  %s  %s\n", database.ShortID(r.ID), database.FormatRunTime(r.CreatedAt),
				r.Kind, r.Levels, r.TotalNodes, verified, render(styles.Muted, r.Version))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of entries")
	historyCmd.Flags().StringVar(&historyKPI, "kpi", "", "Show status history for one KPI id")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "List every KPI status recorded by one run id")
	historyCmd.MarkFlagsMutuallyExclusive("kpi", "run")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local preview server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, db, server.Options{
			DocPath: cfg.Output.Path,
			Version: version,
			Logger:  logger,
		}, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

func printSteps(result *pipeline.Result) {
	for i, step := range result.Steps {
		fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
		if step.Err != nil {
			fmt.Printf("  %s %v\n", render(styles.Red, "Error:"), step.Err)
		} else {
			fmt.Printf("  %s\n", step.Summary)
		}
	}
}

func parseLevelsFlag() (tree.Levels, error) {
	if levelsFlag == "" {
		return "", nil
	}
	return tree.ParseLevels(levelsFlag)
}

func openDB() (*database.DB, error) {
	return database.Open(cfg.LedgerPath())
}
