package mssql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"consumidor-reports-parser/internal/observability"
	"consumidor-reports-parser/internal/storage"
)

type Repository struct {
	db             *sql.DB
	table          string
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(ctx context.Context, dsn, table string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	if err := storage.ValidateCollection(table); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Тестируем соединение
	pingCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	r := &Repository{
		db:             db,
		table:          table,
		commandTimeout: commandTimeout,
		logger:         logger,
	}

	if err := r.ensureTable(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return r, nil
}

func (r *Repository) ensureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		IF OBJECT_ID(N'dbo.%[1]s', N'U') IS NULL
		CREATE TABLE dbo.[%[1]s] (
			[Fingerprint] CHAR(64) NOT NULL PRIMARY KEY,
			[CompanyName] NVARCHAR(400) NOT NULL,
			[ReportDate] BIGINT NOT NULL,
			[Doc] NVARCHAR(MAX) NOT NULL,
			[CrawledAt] DATETIME2 NOT NULL
		);`, r.table)

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// InsertReport пишет документ, существующий fingerprint не трогается
func (r *Repository) InsertReport(ctx context.Context, doc *storage.ReportDocument) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	payload, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("failed to encode report: %w", err)
	}

	// MERGE без WHEN MATCHED: дубликат: no-op
	query := fmt.Sprintf(`
		MERGE INTO dbo.[%s] WITH (HOLDLOCK) AS target
		USING (SELECT @Fingerprint AS Fingerprint) AS source
		ON target.[Fingerprint] = source.Fingerprint
		WHEN NOT MATCHED THEN
			INSERT ([Fingerprint], [CompanyName], [ReportDate], [Doc], [CrawledAt])
			VALUES (@Fingerprint, @CompanyName, @ReportDate, @Doc, @CrawledAt);
	`, r.table)

	result, err := r.db.ExecContext(ctx, query,
		sql.Named("Fingerprint", doc.Fingerprint),
		sql.Named("CompanyName", doc.CompanyName),
		sql.Named("ReportDate", doc.Date),
		sql.Named("Doc", string(payload)),
		sql.Named("CrawledAt", doc.CrawledAt),
	)
	if err != nil {
		return false, fmt.Errorf("failed to execute merge: %w", err)
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

	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM dbo.[%s]`, r.table)
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return count, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
