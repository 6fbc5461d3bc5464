package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"consumidor-reports-parser/internal/observability"
	"consumidor-reports-parser/internal/storage"
)

type Repository struct {
	client         *mongo.Client
	collection     *mongo.Collection
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(ctx context.Context, dsn, database, collection string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	if err := storage.ValidateCollection(collection); err != nil {
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	coll := client.Database(database).Collection(collection)

	// Выборки идут по дате и компании; _id (fingerprint) индексирован и так
	_, err = coll.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: -1}, {Key: "company_name", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &Repository{
		client:         client,
		collection:     coll,
		commandTimeout: commandTimeout,
		logger:         logger,
	}, nil
}

func (r *Repository) InsertReport(ctx context.Context, doc *storage.ReportDocument) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert report: %w", err)
	}
	return true, nil
}

func (r *Repository) CountReports(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return int(n), nil
}

func (r *Repository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.commandTimeout)
	defer cancel()
	return r.client.Disconnect(ctx)
}
