//go:build integration

package storagetest

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"consumidor-reports-parser/internal/storage"
)

// StartContainer поднимает контейнер и возвращает "host:port" первого открытого порта.
// Контейнер останавливается по завершении теста.
func StartContainer(t *testing.T, req testcontainers.ContainerRequest) string {
	t.Helper()

	testcontainers.Logger = log.New(io.Discard, "", 0)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		Started:          true,
		ContainerRequest: req,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Fatal(err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

// SampleDocument: документ с заполненными необязательными полями
func SampleDocument(fingerprint string) *storage.ReportDocument {
	rating := 8
	return &storage.ReportDocument{
		Fingerprint:     fingerprint,
		CompanyName:     "Banco XPTO",
		UserReport:      "Cobrança indevida.\n\nEstorno pedido.",
		CompanyResponse: "Estorno realizado.",
		Status:          "Resolvida",
		UserFeedback:    "Ok",
		UserRating:      &rating,
		Date:            1610668800000,
		City:            "Springfield",
		State:           "IL",
		CrawledAt:       time.Now().UTC(),
	}
}

// AssertInsertIdempotent: повторная запись того же fingerprint ничего не добавляет
func AssertInsertIdempotent(t *testing.T, repo storage.Repository) {
	t.Helper()
	ctx := context.Background()

	doc := SampleDocument("f1")

	inserted, err := repo.InsertReport(ctx, doc)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.InsertReport(ctx, doc)
	require.NoError(t, err)
	assert.False(t, inserted, "duplicate fingerprint must be a no-op")

	inserted, err = repo.InsertReport(ctx, SampleDocument("f2"))
	require.NoError(t, err)
	assert.True(t, inserted)

	n, err := repo.CountReports(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
