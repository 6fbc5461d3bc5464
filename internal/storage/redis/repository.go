package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"consumidor-reports-parser/internal/observability"
	"consumidor-reports-parser/internal/storage"
)

// Repository держит коллекцию в одном hash: поле: fingerprint, значение: JSON документа
type Repository struct {
	client         *redis.Client
	key            string
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(ctx context.Context, redisURL, database, collection string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	if err := storage.ValidateCollection(collection); err != nil {
		return nil, err
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRepositoryFromClient(client, database, collection, commandTimeout, logger), nil
}

func NewRepositoryFromClient(client *redis.Client, database, collection string, commandTimeout time.Duration, logger *observability.Logger) *Repository {
	return &Repository{
		client:         client,
		key:            database + ":" + collection,
		commandTimeout: commandTimeout,
		logger:         logger,
	}
}

func (r *Repository) InsertReport(ctx context.Context, doc *storage.ReportDocument) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	payload, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("failed to encode report: %w", err)
	}

	inserted, err := r.client.HSetNX(ctx, r.key, doc.Fingerprint, payload).Result()
	if err != nil {
		return false, fmt.Errorf("failed to insert report: %w", err)
	}
	return inserted, nil
}

func (r *Repository) CountReports(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	n, err := r.client.HLen(ctx, r.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return int(n), nil
}

func (r *Repository) Close() error {
	return r.client.Close()
}
