package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"consumidor-reports-parser/internal/observability"
	"consumidor-reports-parser/internal/storage"
)

// Repository: локальное хранилище для разработки и тестов
type Repository struct {
	db             *sql.DB
	table          string
	commandTimeout time.Duration
	logger         *observability.Logger
}

// NewRepository открывает (или создаёт) файл базы. dsn: путь к файлу.
func NewRepository(ctx context.Context, dsn, table string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	if err := storage.ValidateCollection(table); err != nil {
		return nil, err
	}

	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite: один писатель
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	r := &Repository{
		db:             db,
		table:          table,
		commandTimeout: commandTimeout,
		logger:         logger,
	}

	initCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if _, err := db.ExecContext(initCtx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			fingerprint TEXT PRIMARY KEY,
			company_name TEXT NOT NULL,
			report_date INTEGER NOT NULL,
			doc TEXT NOT NULL,
			crawled_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_date ON %s(report_date);`, table, table, table)

	if _, err := db.ExecContext(initCtx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return r, nil
}

func (r *Repository) InsertReport(ctx context.Context, doc *storage.ReportDocument) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	payload, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("failed to encode report: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT OR IGNORE INTO %s (fingerprint, company_name, report_date, doc, crawled_at)
		VALUES (?, ?, ?, ?, ?)`, r.table)

	result, err := r.db.ExecContext(ctx, query,
		doc.Fingerprint, doc.CompanyName, doc.Date, string(payload), doc.CrawledAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert report: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *Repository) CountReports(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var n int
	if err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", r.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return n, nil
}

// GetReport читает документ по fingerprint; nil, если его нет
func (r *Repository) GetReport(ctx context.Context, fingerprint string) (*storage.ReportDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var payload string
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT doc FROM %s WHERE fingerprint = ?", r.table), fingerprint).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var doc storage.ReportDocument
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &doc, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
