//go:build integration

package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"consumidor-reports-parser/internal/observability"
	"consumidor-reports-parser/internal/storage/storagetest"
)

func TestInsertReportIdempotent(t *testing.T) {
	endpoint := storagetest.StartContainer(t, testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	})

	repo, err := NewRepository(context.Background(), "mongodb://"+endpoint, "consumidor", "customerreports", 10*time.Second, observability.NewNopLogger())
	require.NoError(t, err)
	defer func() { _ = repo.Close() }()

	storagetest.AssertInsertIdempotent(t, repo)
}
