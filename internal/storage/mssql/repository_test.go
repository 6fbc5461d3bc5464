//go:build integration

package mssql

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

const saPassword = "Rep0rts!Passw0rd"

func TestInsertReportIdempotent(t *testing.T) {
	endpoint := storagetest.StartContainer(t, testcontainers.ContainerRequest{
		Image:        "mcr.microsoft.com/mssql/server:2022-latest",
		ExposedPorts: []string{"1433/tcp"},
		Env: map[string]string{
			"ACCEPT_EULA":       "Y",
			"MSSQL_SA_PASSWORD": saPassword,
		},
		WaitingFor: wait.ForLog("SQL Server is now ready for client connections").
			WithStartupTimeout(3 * time.Minute),
	})

	dsn := "sqlserver://sa:" + saPassword + "@" + endpoint + "?database=master"
	repo, err := NewRepository(context.Background(), dsn, "customerreports", 30*time.Second, observability.NewNopLogger())
	require.NoError(t, err)
	defer func() { _ = repo.Close() }()

	storagetest.AssertInsertIdempotent(t, repo)
}
