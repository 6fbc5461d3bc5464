package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"consumidor-reports-parser/internal/observability"
	"consumidor-reports-parser/internal/storage"
)

// Repository хранит документ целиком в JSONB, ключ: fingerprint
type Repository struct {
	pool           *pgxpool.Pool
	table          string // уже экранировано
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(ctx context.Context, dsn, table string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	if err := storage.ValidateCollection(table); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	r := &Repository{
		pool:           pool,
		table:          pgx.Identifier{table}.Sanitize(),
		commandTimeout: commandTimeout,
		logger:         logger,
	}

	if err := r.ensureSchema(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *Repository) ensureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			fingerprint TEXT PRIMARY KEY,
			report_date BIGINT NOT NULL,
			doc         JSONB NOT NULL,
			crawled_at  TIMESTAMPTZ NOT NULL
		)`, r.table)

	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

func (r *Repository) InsertReport(ctx context.Context, doc *storage.ReportDocument) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	payload, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("failed to encode report: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (fingerprint, report_date, doc, crawled_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (fingerprint) DO NOTHING`, r.table)

	tag, err := r.pool.Exec(ctx, query, doc.Fingerprint, doc.Date, payload, doc.CrawledAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert report: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *Repository) CountReports(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var n int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return n, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}
