//go:build integration

// Integration coverage against a real PostgreSQL instance, started with the
// dedicated testcontainers-go/modules/postgres module plus an explicit
// wait.ForListeningPort check on 5432/tcp before connecting.
// Run with: go test -tags=integration ./pkg/catalog/postgres/...
package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mladen4o/ClovaLink/pkg/catalog"
	"github.com/mladen4o/ClovaLink/pkg/catalog/postgres"
)

func TestStore_InsertAndFind_RealPostgres(t *testing.T) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("corevault"),
		tcpostgres.WithUsername("corevault"),
		tcpostgres.WithPassword("corevault"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	require.NoError(t, wait.ForListeningPort("5432/tcp").WithStartupTimeout(30*time.Second).
		WaitUntilReady(ctx, container))

	store, err := postgres.New(postgres.Config{
		Dialect: postgres.DialectPostgres, Host: host, Port: port.Int(),
		Database: "corevault", User: "corevault", Password: "corevault", SSLMode: "disable",
	})
	require.NoError(t, err)

	rec := &catalog.Record{
		ID: "rec-1", TenantID: "tenant-a", ParentPath: "/",
		Name: "report.pdf", Visibility: catalog.VisibilityPrivate,
	}
	require.NoError(t, store.InsertFile(ctx, rec))

	found, err := store.GetByID(ctx, "rec-1")
	require.NoError(t, err)
	require.Equal(t, "report.pdf", found.Name)
}
