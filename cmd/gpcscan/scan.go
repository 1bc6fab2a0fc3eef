package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/privsig/gpcscan/internal/classify"
	"github.com/privsig/gpcscan/internal/config"
	"github.com/privsig/gpcscan/internal/database"
	"github.com/privsig/gpcscan/internal/detector"
	"github.com/privsig/gpcscan/internal/enrich"
	applog "github.com/privsig/gpcscan/internal/log"
	"github.com/privsig/gpcscan/internal/model"
	"github.com/privsig/gpcscan/internal/pipeline"
	"github.com/privsig/gpcscan/internal/report"
	"github.com/privsig/gpcscan/internal/rules"
	"github.com/privsig/gpcscan/internal/session"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [site-url]",
		Short: "Scan a website for privacy signal compliance",
		Long: `Scan runs a dual-session compliance audit against one or more websites.

Two isolated sessions visit the same pages: a baseline session without
any privacy signal, and a compliance session asserting Global Privacy
Control via the Sec-GPC header. The tracker traffic captured under both
postures is compared to decide whether the site honors the signal.

The scan detects:
- Trackers that fire despite the opt-out signal
- Trackers firing within the page-load window before a user could consent
- Missing "Do Not Sell"/"Your Privacy Choices" opt-out links
- Missing cookie consent banners
- PII embedded in tracking request URLs

Examples:
  # Scan a single site under the default CCPA ruleset
  gpcscan scan https://example.com

  # Scan against the GDPR ruleset
  gpcscan scan --jurisdiction GDPR https://example.com

  # Scan a fixed page itinerary
  gpcscan scan --pages https://example.com/,https://example.com/pricing https://example.com

  # Simulate clicking "Reject All" in the compliance session
  gpcscan scan --simulate-reject https://example.com

  # Output JSON report to a file
  gpcscan scan --json -o report.json https://example.com

  # Export the raw per-session traffic for independent audit
  gpcscan scan --export-traffic traffic.jsonl.gz https://example.com`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Scan behavior flags
	cmd.Flags().StringP("jurisdiction", "J", config.DefaultJurisdiction,
		"Rule dataset to evaluate against (CCPA or GDPR)")
	cmd.Flags().StringSliceP("pages", "p", nil,
		"Page itinerary both sessions visit (default: the target URL only)")
	cmd.Flags().DurationP("page-timeout", "t", config.DefaultPerPageTimeout,
		"Timeout for a single page navigation")
	cmd.Flags().DurationP("session-timeout", "T", config.DefaultTotalTimeout,
		"Timeout for one whole session")
	cmd.Flags().DurationP("leak-window", "w", config.DefaultLeakWindow,
		"Temporal leak window after page load")
	cmd.Flags().BoolP("simulate-reject", "r", false,
		"Actively click a Reject All consent control in the compliance session")

	// Batch scanning flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent target scans")

	// Dataset flags
	cmd.Flags().StringP("classify-file", "c", "",
		"YAML file overriding the built-in tracker/PII classification tables")
	cmd.Flags().StringP("rules", "R", "",
		"External rules.sql dataset (default: embedded dataset)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().StringP("export-traffic", "x", "",
		"Write raw per-session traffic as gzip-compressed JSON lines")
	cmd.Flags().Bool("no-save", false,
		"Do not persist the report to the scan history database")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := applog.NewProgressLogger(os.Stderr, cfg.Verbose, nil)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runScan(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Jurisdiction, err = cmd.Flags().GetString("jurisdiction")
	if err != nil {
		return nil, err
	}

	cfg.Itinerary, err = cmd.Flags().GetStringSlice("pages")
	if err != nil {
		return nil, err
	}

	cfg.PerPageTimeout, err = cmd.Flags().GetDuration("page-timeout")
	if err != nil {
		return nil, err
	}

	cfg.TotalTimeout, err = cmd.Flags().GetDuration("session-timeout")
	if err != nil {
		return nil, err
	}

	cfg.LeakWindow, err = cmd.Flags().GetDuration("leak-window")
	if err != nil {
		return nil, err
	}

	cfg.SimulateRejectAction, err = cmd.Flags().GetBool("simulate-reject")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ClassifyFilePath, err = cmd.Flags().GetString("classify-file")
	if err != nil {
		return nil, err
	}

	cfg.RulesPath, err = cmd.Flags().GetString("rules")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.ExportTrafficPath, err = cmd.Flags().GetString("export-traffic")
	if err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}

	// Reports persist to the XDG data directory unless opted out
	cfg.SaveToDB = !noSave
	cfg.DBDir = config.XDGDataDir()

	cfg.Verbose = getVerboseFlag(cmd)

	// Positional arguments are the target sites
	cfg.Targets = args

	return cfg, nil
}

// runScan executes the scan across all targets.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting scan",
		"targets", cfg.Targets,
		"jurisdiction", cfg.Jurisdiction,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	// Load classification tables, possibly overridden by a YAML file
	tables, itineraries, err := config.LoadClassification(cfg.ClassifyFilePath)
	if err != nil {
		return err
	}
	trackers := classify.NewTrackerMatcher(tables.TrackerDomains)
	pii, err := classify.NewPIIScanner(tables.PIIPatterns)
	if err != nil {
		return fmt.Errorf("invalid PII patterns: %w", err)
	}

	// Load the rule dataset
	var store *rules.Store
	if cfg.RulesPath != "" {
		store, err = rules.OpenFile(cfg.RulesPath)
	} else {
		store, err = rules.Open()
	}
	if err != nil {
		return fmt.Errorf("failed to load rule dataset: %w", err)
	}
	defer store.Close()

	// A missing or empty rule set for the jurisdiction is a dataset
	// failure, not a scan result. Check it here so no session launches
	// and no report is produced for a jurisdiction we cannot evaluate.
	if _, err := store.FetchRules(ctx, cfg.Jurisdiction); err != nil {
		return fmt.Errorf("rule dataset check failed: %w", err)
	}

	// Open the scan history database if persistence is enabled
	var db *database.HistoryDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	env := &scanEnv{
		cfg:         cfg,
		tables:      tables,
		trackers:    trackers,
		pii:         pii,
		store:       store,
		db:          db,
		itineraries: itineraries,
		logger:      logger,
	}

	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		return runBatchScan(ctx, env)
	}
	return runSequentialScan(ctx, env)
}

// scanEnv bundles the shared, read-only dependencies of every target scan.
type scanEnv struct {
	cfg         *config.Config
	tables      *classify.Tables
	trackers    *classify.TrackerMatcher
	pii         *classify.PIIScanner
	store       *rules.Store
	db          *database.HistoryDB
	itineraries map[string][]string
	logger      *slog.Logger
}

// itineraryFor resolves the page itinerary for one target: the --pages
// flag wins, then the classification file's per-target itinerary, then
// just the target URL itself.
func (e *scanEnv) itineraryFor(target string) []string {
	if len(e.cfg.Itinerary) > 0 {
		return e.cfg.Itinerary
	}
	if pages, ok := e.itineraries[target]; ok && len(pages) > 0 {
		return pages
	}
	return []string{target}
}

// newScan creates the scan state for one target.
func (e *scanEnv) newScan(target string) *model.Scan {
	return model.NewScan(target, e.cfg.Jurisdiction, e.itineraryFor(target))
}

// newPipeline assembles the full scan pipeline for one target.
func (e *scanEnv) newPipeline() *pipeline.Pipeline {
	factory := func(signal model.SignalConfig) (session.Driver, error) {
		return session.NewHTTPDriver(signal, e.tables,
			session.WithUserAgent(e.cfg.UserAgent),
			session.WithMaxSubresources(e.cfg.MaxSubresources),
			session.WithMaxBodySize(e.cfg.MaxBodySize),
		)
	}

	runner := session.NewRunner(factory, e.trackers, e.pii,
		session.WithPerPageTimeout(e.cfg.PerPageTimeout),
		session.WithTotalTimeout(e.cfg.TotalTimeout),
		session.WithLogger(e.logger),
	)

	signals := []model.SignalConfig{
		config.BaselineSignal(),
		config.ComplianceSignal(e.cfg.SimulateRejectAction),
	}

	p := pipeline.New(
		pipeline.WithLogger(e.logger),
		pipeline.WithContinueOnError(true),
	)
	p.AddSteps(
		pipeline.NewSessionStep(runner, signals, pipeline.WithSessionLogger(e.logger)),
		pipeline.NewLeakStep(e.cfg.LeakWindow),
		pipeline.NewVerdictStep(),
		pipeline.NewRulesStep(e.store),
		pipeline.NewEvaluateStep(detector.NewEvaluator(e.logger), e.cfg.LeakWindow),
		pipeline.NewEnrichStep(enrich.NewChain(e.logger, enrich.NewRuleText())),
		pipeline.NewReportStep(),
	)
	return p
}

// runSequentialScan scans targets one at a time.
func runSequentialScan(ctx context.Context, env *scanEnv) error {
	for _, target := range env.cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		p := env.newPipeline()
		scan := env.newScan(target)

		fmt.Printf("Scanning %s...\n", target)
		startTime := time.Now()

		if err := p.Execute(ctx, scan); err != nil {
			env.logger.Error("scan failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Scan error for %s: %v\n", target, err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Scan completed in %s\n\n", elapsed.Round(time.Millisecond))

		finishScan(ctx, env, scan)
	}

	return nil
}

// runBatchScan scans multiple targets concurrently using BatchProcessor.
func runBatchScan(ctx context.Context, env *scanEnv) error {
	fmt.Printf("Starting batch scan of %d targets (concurrency: %d)...\n\n",
		len(env.cfg.Targets), env.cfg.BatchSize)

	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		env.newPipeline,
		env.newScan,
		pipeline.WithConcurrency(env.cfg.BatchSize),
		pipeline.WithBatchLogger(env.logger),
	)

	// Process with callback for streaming output
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, env.cfg.Targets, func(scan *model.Scan, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Printf("[%d/%d] Scan completed: %s\n", index+1, len(env.cfg.Targets), scan.Target)
		finishScan(ctx, env, scan)
	})

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch scan completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// finishScan outputs, exports, and persists one completed scan.
// Failures in any of the three are logged, not fatal: a finished scan's
// evidence should reach the user through whichever channels still work.
func finishScan(ctx context.Context, env *scanEnv, scan *model.Scan) {
	if err := outputReport(env.cfg, scan); err != nil {
		env.logger.Error("report failed", "target", scan.Target, "error", err)
	}

	if env.cfg.ExportTrafficPath != "" {
		if err := exportTraffic(env.cfg.ExportTrafficPath, scan); err != nil {
			env.logger.Error("traffic export failed", "target", scan.Target, "error", err)
		}
	}

	if err := saveReport(ctx, env.db, scan, env.logger); err != nil {
		env.logger.Error("failed to save scan report", "target", scan.Target, "error", err)
	}
}

// outputReport outputs the evidence report in the requested format.
func outputReport(cfg *config.Config, scan *model.Scan) error {
	if scan.Report == nil {
		scan.Report = report.Build(scan)
	}

	output := os.Stdout
	if cfg.ReportFile != "" {
		f, err := createOutputFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		output = f
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithSchemaValidation())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(scan.Report)
	return err
}

// createOutputFile opens the report destination with owner-only
// permissions, creating parent directories as needed. Reports may carry
// PII samples from tracking URLs.
func createOutputFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// exportTraffic writes the raw session logs to the configured path.
func exportTraffic(path string, scan *model.Scan) error {
	f, err := createOutputFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := report.ExportTraffic(f, scan.Logs); err != nil {
		return fmt.Errorf("failed to export traffic: %w", err)
	}
	return nil
}

// saveReport saves the evidence report to the database if enabled.
// If db is nil, this function is a no-op.
func saveReport(ctx context.Context, db *database.HistoryDB, scan *model.Scan, logger *slog.Logger) error {
	if db == nil || scan.Report == nil {
		return nil
	}

	id, err := db.SaveReport(ctx, scan.Report)
	if err != nil {
		return fmt.Errorf("failed to save scan report: %w", err)
	}

	logger.Info("scan report saved to database", "target", scan.Target, "id", id)
	return nil
}
