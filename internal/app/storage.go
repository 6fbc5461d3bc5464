package app

import (
	"context"
	"fmt"

	"consumidor-reports-parser/internal/config"
	"consumidor-reports-parser/internal/observability"
	"consumidor-reports-parser/internal/storage"
	"consumidor-reports-parser/internal/storage/mongo"
	"consumidor-reports-parser/internal/storage/mssql"
	"consumidor-reports-parser/internal/storage/postgres"
	"consumidor-reports-parser/internal/storage/redis"
	"consumidor-reports-parser/internal/storage/sqlite"
)

// OpenRepository открывает хранилище по storage.driver
func OpenRepository(ctx context.Context, cfg *config.Config, logger *observability.Logger) (storage.Repository, error) {
	sc := cfg.Storage
	timeout := cfg.GetCommandTimeout()

	logger.Info("Opening storage", "driver", sc.Driver, "dsn", sc.DSN, "collection", sc.Collection)

	switch sc.Driver {
	case "mongo":
		return mongo.NewRepository(ctx, sc.DSN, sc.Database, sc.Collection, timeout, logger)
	case "postgres":
		return postgres.NewRepository(ctx, sc.DSN, sc.Collection, timeout, logger)
	case "mssql":
		return mssql.NewRepository(ctx, sc.DSN, sc.Collection, timeout, logger)
	case "sqlite":
		return sqlite.NewRepository(ctx, sc.DSN, sc.Collection, timeout, logger)
	case "redis":
		return redis.NewRepository(ctx, sc.DSN, sc.Database, sc.Collection, timeout, logger)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownStorageDriver, sc.Driver)
	}
}
