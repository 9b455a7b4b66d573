package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/vellum-app/vellum/pkg/audit"
	"github.com/vellum-app/vellum/pkg/documents"
	"github.com/vellum-app/vellum/pkg/grants"
	"github.com/vellum-app/vellum/pkg/projects"
)

// setupPostgres starts a disposable PostgreSQL container with the full
// schema applied. Skipped in -short mode and when no container runtime is
// available.
func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		t.Skip("Docker/Podman not available, skipping integration tests")
	}
	defer provider.Close()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("vellum_test"),
		postgres.WithUsername("vellum"),
		postgres.WithPassword("vellum_test_password"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Ping())

	require.NoError(t, projects.NewStore(db).EnsureSchema(ctx))
	require.NoError(t, grants.NewStore(db).EnsureSchema(ctx))
	require.NoError(t, documents.NewStore(db).EnsureSchema(ctx))
	require.NoError(t, audit.NewStore(db).EnsureSchema(ctx))

	return db
}
