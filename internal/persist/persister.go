package persist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"consumidor-reports-parser/internal/checksum"
	"consumidor-reports-parser/internal/observability"
	"consumidor-reports-parser/internal/scraper"
	"consumidor-reports-parser/internal/storage"
)

// DefaultConcurrency: одновременных записей в хранилище
const DefaultConcurrency = 8

type Options struct {
	Concurrency    int
	MaxRetries     int
	BackoffMin     time.Duration
	BackoffMax     time.Duration
	CommandTimeout time.Duration
	Now            func() time.Time
}

// PersistError: отчёт, который не удалось записать после всех попыток
type PersistError struct {
	Fingerprint string
	CompanyName string
	Attempts    int
	Err         error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s (%s) failed after %d attempt(s): %v", e.Fingerprint, e.CompanyName, e.Attempts, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

type Summary struct {
	Submitted    int
	Written      int
	Duplicates   int
	SkippedToday int
	Failed       int
	Cancelled    int
	Errors       []*PersistError
}

// Persister пишет отчёты пулом ограниченного размера.
// Записываются только отчёты с датой строго раньше дня запуска (UTC):
// сегодняшний листинг ещё дополняется.
type Persister struct {
	repo      storage.Repository
	generator *checksum.Generator
	logger    *observability.Logger
	opts      Options
	today     time.Time
	group     errgroup.Group

	mu      sync.Mutex
	summary Summary
}

func NewPersister(repo storage.Repository, logger *observability.Logger, opts Options) *Persister {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.BackoffMin <= 0 {
		opts.BackoffMin = 250 * time.Millisecond
	}
	if opts.BackoffMax < opts.BackoffMin {
		opts.BackoffMax = opts.BackoffMin
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	now := opts.Now().UTC()
	p := &Persister{
		repo:      repo,
		generator: checksum.NewGenerator(),
		logger:    logger,
		opts:      opts,
		today:     time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
	}
	p.group.SetLimit(opts.Concurrency)
	return p
}

// ProcessingDate: день запуска, с которым сравниваются даты отчётов
func (p *Persister) ProcessingDate() time.Time {
	return p.today
}

// Submit ставит отчёт в очередь на запись. Блокируется, пока в пуле нет места.
// После отмены ctx новые записи не начинаются.
func (p *Persister) Submit(ctx context.Context, report *scraper.Report) error {
	if err := ctx.Err(); err != nil {
		p.count(func(s *Summary) { s.Cancelled++ })
		return err
	}

	p.count(func(s *Summary) { s.Submitted++ })

	if !report.ReportDate.Before(p.today) {
		p.count(func(s *Summary) { s.SkippedToday++ })
		return nil
	}

	fingerprint := p.generator.Fingerprint(report.CompanyName, report.ReportDate, report.UserReport)
	doc := storage.NewReportDocument(report, fingerprint, p.opts.Now())

	p.group.Go(func() error {
		// Пока ждали слот, обход могли отменить
		if ctx.Err() != nil {
			p.count(func(s *Summary) { s.Cancelled++ })
			return nil
		}
		p.write(ctx, doc)
		return nil
	})

	return nil
}

// Wait дожидается всех начатых записей
func (p *Persister) Wait() Summary {
	_ = p.group.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()

	out := p.summary
	out.Errors = append([]*PersistError(nil), p.summary.Errors...)
	return out
}

func (p *Persister) write(ctx context.Context, doc *storage.ReportDocument) {
	// Начатая запись доводится до конца даже при отмене обхода
	writeCtx := context.WithoutCancel(ctx)

	attempts := 0
	operation := func() (bool, error) {
		attempts++
		attemptCtx := writeCtx
		if p.opts.CommandTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(writeCtx, p.opts.CommandTimeout)
			defer cancel()
		}
		return p.repo.InsertReport(attemptCtx, doc)
	}

	inserted, err := backoff.RetryNotifyWithData(operation, p.retryPolicy(ctx), func(err error, next time.Duration) {
		p.logger.Warn("persist attempt failed",
			"fingerprint", doc.Fingerprint,
			"attempt", attempts,
			"retry_in", next.String(),
			"error", err,
		)
	})

	if err != nil {
		perr := &PersistError{
			Fingerprint: doc.Fingerprint,
			CompanyName: doc.CompanyName,
			Attempts:    attempts,
			Err:         err,
		}
		p.logger.Error("failed to persist report", "fingerprint", doc.Fingerprint, "attempts", attempts, "error", err)
		p.count(func(s *Summary) {
			s.Failed++
			s.Errors = append(s.Errors, perr)
		})
		return
	}

	if inserted {
		p.logger.Debug("report written", "fingerprint", doc.Fingerprint, "company", doc.CompanyName)
		p.count(func(s *Summary) { s.Written++ })
	} else {
		p.count(func(s *Summary) { s.Duplicates++ })
	}
}

func (p *Persister) retryPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.opts.BackoffMin
	b.MaxInterval = p.opts.BackoffMax
	b.MaxElapsedTime = 0

	// Отмена обхода прекращает повторы, но не текущую попытку
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.opts.MaxRetries)), ctx)
}

func (p *Persister) count(fn func(s *Summary)) {
	p.mu.Lock()
	fn(&p.summary)
	p.mu.Unlock()
}
