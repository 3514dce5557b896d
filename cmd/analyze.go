// File: cmd/analyze.go
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muuktest/selector-feedback/api/schemas"
	"github.com/muuktest/selector-feedback/internal/config"
	"github.com/muuktest/selector-feedback/internal/observability"
	"github.com/muuktest/selector-feedback/internal/reporting"
	"github.com/muuktest/selector-feedback/internal/results"
	"github.com/muuktest/selector-feedback/internal/store"
)

// reportStore is the part of the store the analyze and history commands need.
type reportStore interface {
	PersistReport(ctx context.Context, className, browser string, report *schemas.MuukReport) (string, error)
	GetFeedbackByRunID(ctx context.Context, runID string) ([]store.FeedbackRow, error)
}

// storeProvider creates the report store. Tests inject a mock instead of a
// live database connection.
type storeProvider interface {
	// Create returns the store, a cleanup function releasing its resources,
	// and an error if the store could not be created.
	Create(ctx context.Context, cfg config.Interface) (reportStore, func(), error)
}

type defaultStoreProvider struct{}

// NewStoreProvider returns the PostgreSQL backed store provider.
func NewStoreProvider() storeProvider {
	return &defaultStoreProvider{}
}

// Create connects to PostgreSQL, makes sure the feedback tables exist and
// returns the store with a cleanup that closes the pool.
func (p *defaultStoreProvider) Create(ctx context.Context, cfg config.Interface) (reportStore, func(), error) {
	logger := observability.GetLogger()
	if cfg.Database().URL == "" {
		return nil, nil, fmt.Errorf("database URL is not configured (%s_DATABASE_URL)", config.EnvPrefix)
	}

	pool, err := pgxpool.New(ctx, cfg.Database().URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	storeService, err := store.New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to initialize store service: %w", err)
	}
	if err := storeService.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		logger.Debug("Database connection pool closed.")
	}
	return storeService, cleanup, nil
}

type analyzeOptions struct {
	className  string
	outputPath string
	format     string
	persist    bool
}

// newAnalyzeCmd creates and configures the `analyze` command.
func newAnalyzeCmd(provider storeProvider) *cobra.Command {
	var opts analyzeOptions

	analyzeCmd := &cobra.Command{
		Use:   "analyze <className>",
		Short: "Analyze the selectors of a test class and emit the feedback report",
		Long: `Reads <report.dir>/<className>.json and the DOM snapshots of its steps,
evaluates every recorded selector class and writes the report with the
feedback and recommended selector of each step.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if err := applyEngineFlags(cmd, cfg); err != nil {
				return err
			}

			opts.className = args[0]
			return runAnalyze(ctx, logger, cfg, opts, provider, cmd.OutOrStdout())
		},
	}

	analyzeCmd.Flags().StringP("browser", "b", "", "Browser the snapshots were captured with. (Overrides config/env)")
	analyzeCmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Output file path. If unset, the report is printed to stdout.")
	analyzeCmd.Flags().StringVarP(&opts.format, "format", "f", "json", "Format for the output report ('json' or 'sarif').")
	analyzeCmd.Flags().BoolVar(&opts.persist, "persist", false, "Store the report in PostgreSQL (requires database.url).")
	analyzeCmd.Flags().IntP("workers", "w", 0, "Number of steps analyzed concurrently. (Overrides config/env)")
	analyzeCmd.Flags().Bool("attribute-fallback", false, "Enable the attribute priority fallback. (Overrides config/env)")

	return analyzeCmd
}

// applyEngineFlags copies explicitly set flags over the loaded configuration.
func applyEngineFlags(cmd *cobra.Command, cfg config.Interface) error {
	flags := cmd.Flags()
	if flags.Changed("browser") {
		browser, _ := flags.GetString("browser")
		cfg.SetReportBrowser(browser)
	}
	if flags.Changed("workers") {
		workers, _ := flags.GetInt("workers")
		if workers <= 0 {
			return fmt.Errorf("--workers must be a positive integer, got %d", workers)
		}
		cfg.SetEngineWorkerConcurrency(workers)
	}
	if flags.Changed("attribute-fallback") {
		enabled, _ := flags.GetBool("attribute-fallback")
		cfg.SetEngineAttributeFallback(enabled)
	}
	return nil
}

// runAnalyze contains the core, testable logic of the analyze command.
func runAnalyze(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.Interface,
	opts analyzeOptions,
	provider storeProvider,
	stdout io.Writer,
) error {
	browser := cfg.Report().Browser

	// Open the output first so a bad format or path fails before the analysis.
	reporter, err := newReporter(opts, stdout)
	if err != nil {
		return fmt.Errorf("failed to initialize reporter: %w", err)
	}

	pipeline := results.NewPipeline(cfg, logger)
	report, err := pipeline.CreateMuukReport(ctx, opts.className, browser)
	if err != nil {
		_ = reporter.Close()
		return fmt.Errorf("selector analysis aborted: %w", err)
	}

	if opts.persist {
		if err := persistReport(ctx, logger, cfg, provider, opts.className, browser, report); err != nil {
			_ = reporter.Close()
			return err
		}
	}

	if err := reporter.Write(opts.className, report); err != nil {
		_ = reporter.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := reporter.Close(); err != nil {
		return fmt.Errorf("failed to finalize report: %w", err)
	}

	if opts.outputPath != "" {
		logger.Info("Report successfully written to file", zap.String("path", opts.outputPath))
	}
	return nil
}

func newReporter(opts analyzeOptions, stdout io.Writer) (reporting.Reporter, error) {
	if opts.outputPath == "" {
		return reporting.NewForWriter(opts.format, stdout, Version)
	}
	return reporting.New(opts.format, opts.outputPath, Version)
}

func persistReport(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.Interface,
	provider storeProvider,
	className, browser string,
	report *schemas.MuukReport,
) error {
	reportStore, cleanup, err := provider.Create(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	runID, err := reportStore.PersistReport(ctx, className, browser, report)
	if err != nil {
		return fmt.Errorf("failed to persist report: %w", err)
	}
	logger.Info("Report persisted", zap.String("run_id", runID), zap.String("class", className))
	return nil
}
