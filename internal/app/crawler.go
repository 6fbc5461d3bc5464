package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"consumidor-reports-parser/internal/crawl"
	"consumidor-reports-parser/internal/fetcher"
	"consumidor-reports-parser/internal/observability"
	"consumidor-reports-parser/internal/persist"
	"consumidor-reports-parser/internal/scraper"
	"consumidor-reports-parser/internal/storage"
)

// PageFetcher: то, что нужно обходу от транспорта
type PageFetcher interface {
	Warmup(ctx context.Context, req crawl.Request) error
	Fetch(ctx context.Context, req crawl.Request) (*fetcher.FetchResponse, error)
}

// Crawler выполняет последовательный цикл страниц (запрос → разбор → запись → следующий offset).
// Следующая страница зависит от числа карточек на текущей, поэтому страницы не
// запрашиваются наперёд; параллельна только запись.
type Crawler struct {
	logger      *observability.Logger
	fetcher     PageFetcher
	scraper     *scraper.Scraper
	driver      *crawl.Driver
	repo        storage.Repository
	persistOpts persist.Options
	now         func() time.Time
}

func NewCrawler(
	logger *observability.Logger,
	f PageFetcher,
	s *scraper.Scraper,
	d *crawl.Driver,
	repo storage.Repository,
	persistOpts persist.Options,
) *Crawler {
	now := persistOpts.Now
	if now == nil {
		now = time.Now
	}
	return &Crawler{
		logger:      logger,
		fetcher:     f,
		scraper:     s,
		driver:      d,
		repo:        repo,
		persistOpts: persistOpts,
		now:         now,
	}
}

// Run выполняет один полный обход с offset 0.
// Статистика возвращается и при ошибке.
func (c *Crawler) Run(ctx context.Context) (*CrawlStats, error) {
	stats := newCrawlStats(uuid.NewString(), c.now())
	logger := c.logger.With("run_id", stats.RunID)

	persister := persist.NewPersister(c.repo, logger, c.persistOpts)

	logger.Info("Starting crawl",
		"processing_date", persister.ProcessingDate().Format("2006-01-02"),
		"page_size", c.driver.PageSize(),
	)

	err := c.crawl(ctx, logger, persister, stats)

	// Дожидаемся начатых записей при любом исходе
	stats.Persist = persister.Wait()
	stats.finish(err, c.now())

	if err != nil {
		logger.Error("Crawl failed", stats.LogFields()...)
	} else {
		logger.Info("Crawl completed", stats.LogFields()...)
	}

	return stats, err
}

func (c *Crawler) crawl(ctx context.Context, logger *observability.Logger, persister *persist.Persister, stats *CrawlStats) error {
	if req, ok := c.driver.WarmupRequest(); ok {
		logger.Info("Warming up session", "url", req.URL)
		if err := c.fetcher.Warmup(ctx, req); err != nil {
			return fmt.Errorf("warm-up: %w", err)
		}
	}

	state := c.driver.Start()
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("crawl cancelled at offset %d: %w", state.Offset, err)
		}

		req := c.driver.NextRequest(state)
		pageLogger := logger.With("offset", state.Offset)

		resp, err := c.fetcher.Fetch(ctx, req)
		if err != nil {
			pageLogger.Error("Fetch failed", "url", req.URL, "error", err)
			return fmt.Errorf("fetch offset %d: %w", state.Offset, err)
		}

		result, err := c.scraper.Extract(resp.Body)
		if err != nil {
			var shapeErr *scraper.MarkupShapeError
			if errors.As(err, &shapeErr) {
				pageLogger.Error("Markup shape changed", "group", shapeErr.Group, "cards_found", shapeErr.CardsFound)
			}
			return fmt.Errorf("extract offset %d: %w", state.Offset, err)
		}

		stats.Pages++
		stats.CardsFound += result.CardsFound
		stats.Records += len(result.Reports)

		for _, drop := range result.Dropped {
			stats.Drops[drop.Reason]++
			pageLogger.Warn("Card dropped", "card", drop.Index, "reason", string(drop.Reason), "error", drop.Err)
		}

		pageLogger.Info("Page processed",
			"cards_found", result.CardsFound,
			"records", len(result.Reports),
			"dropped", len(result.Dropped),
		)

		for _, report := range result.Reports {
			if err := persister.Submit(ctx, report); err != nil {
				return fmt.Errorf("crawl cancelled at offset %d: %w", state.Offset, err)
			}
		}

		next, outcome := c.driver.Advance(state, result.CardsFound)
		if outcome.Done {
			stats.StopReason = outcome.Reason
			logger.Info("Pagination finished", "reason", string(outcome.Reason), "offset", state.Offset)
			return nil
		}
		state = next
	}
}
