package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"consumidor-reports-parser/internal/app"
	"consumidor-reports-parser/internal/config"
	"consumidor-reports-parser/internal/crawl"
	"consumidor-reports-parser/internal/fetcher"
	"consumidor-reports-parser/internal/observability"
	"consumidor-reports-parser/internal/persist"
	"consumidor-reports-parser/internal/scheduler"
	"consumidor-reports-parser/internal/scraper"
)

type crawlOptions struct {
	configPath string
	maxOffset  int
	once       bool
}

func NewCrawlCmd() *cobra.Command {
	opts := &crawlOptions{}

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the report listing and store new reports",
		Long: `Crawl pages through the listing from offset 0 until an empty page (or --max-offset),
storing every report dated before today. With scheduler.mode interval/cron the crawl repeats
until interrupted.

Exit codes: 0 completed, 2 completed with dropped cards, 3 completed with write failures, 1 failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("max-offset") && opts.maxOffset < 0 {
				return fmt.Errorf("--max-offset must be >= 0")
			}
			return runCrawl(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "configs/config.yaml", "Path to config file")
	cmd.Flags().IntVar(&opts.maxOffset, "max-offset", 0, "Stop after this offset (0 = no limit, overrides config)")
	cmd.Flags().BoolVar(&opts.once, "once", false, "Run a single crawl regardless of scheduler mode")

	return cmd
}

func runCrawl(cmd *cobra.Command, opts *crawlOptions) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("max-offset") {
		cfg.Pagination.MaxOffset = opts.maxOffset
	}
	if opts.once {
		cfg.Scheduler.Mode = scheduler.ModeOneshot
	}

	logger, err := observability.NewLogger(observability.Options{
		LogPath:    cfg.Observability.LogPath,
		LogLevel:   cfg.Observability.LogLevel,
		MaxSizeMB:  cfg.Observability.LogMaxSizeMB,
		MaxBackups: cfg.Observability.LogMaxBackups,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Close() }()

	ctx, cancel := app.GracefulShutdown(cmd.Context(), logger)
	defer cancel()

	selectors, err := cfg.ResolveSelectors(filepath.Dir(opts.configPath))
	if err != nil {
		return fmt.Errorf("failed to load selectors: %w", err)
	}

	repo, err := app.OpenRepository(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Warn("Failed to close storage", "error", err)
		}
	}()

	f, err := fetcher.NewFetcher(cfg, logger)
	if err != nil {
		return err
	}

	crawler := app.NewCrawler(
		logger,
		f,
		scraper.NewScraper(selectors, scraper.Options{
			Correlation: scraper.Correlation(cfg.Extraction.Correlation),
			DateLayout:  cfg.Extraction.DateLayout,
		}),
		crawl.NewDriver(crawl.DriverConfig{
			ListingURL:    cfg.Site.ListingURL,
			OriginURL:     cfg.Site.OriginURL,
			OffsetField:   cfg.Site.OffsetField,
			KeywordsField: cfg.Site.KeywordsField,
			PageSize:      cfg.Pagination.PageSize,
			MaxOffset:     cfg.Pagination.MaxOffset,
		}),
		repo,
		persist.Options{
			Concurrency:    cfg.Storage.WriteConcurrency,
			MaxRetries:     cfg.Storage.MaxRetries,
			BackoffMin:     cfg.GetBackoffMin(),
			BackoffMax:     cfg.GetBackoffMax(),
			CommandTimeout: cfg.GetCommandTimeout(),
		},
	)

	var last *app.CrawlStats
	job := func(ctx context.Context) error {
		stats, err := crawler.Run(ctx)
		last = stats
		app.RenderStats(cmd.OutOrStdout(), stats)
		return err
	}

	sched, err := scheduler.New(cfg.Scheduler, logger, job)
	if err != nil {
		return err
	}

	runErr := sched.Run(ctx)

	if cfg.Scheduler.Mode == scheduler.ModeOneshot && last != nil {
		if code := last.Status.ExitCode(); code != 0 {
			return &exitError{code: code, err: runErr}
		}
	}
	return runErr
}
