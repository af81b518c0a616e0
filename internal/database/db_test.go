package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestStatsNotConnected(t *testing.T) {
	Close()

	assert.Nil(t, Pool())
	assert.Nil(t, Stats())
	assert.Error(t, Status(context.Background()))

	_, err := MissingTables(context.Background(), []string{"items"})
	assert.Error(t, err)
}

func TestConnectStats(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start postgres container")
	defer testcontainers.TerminateContainer(container)

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, Connect(ctx, connStr, 4, 1, time.Hour, time.Minute))
	defer Close()

	require.NoError(t, Status(ctx))

	stats := Stats()
	require.NotNil(t, stats)
	assert.Equal(t, int32(4), stats.MaxConns)
	assert.GreaterOrEqual(t, stats.TotalConns, int32(1))

	_, err = Pool().Exec(ctx, `CREATE TABLE items (id TEXT PRIMARY KEY)`)
	require.NoError(t, err)

	missing, err := MissingTables(ctx, []string{"items", "price_history"})
	require.NoError(t, err)
	assert.Equal(t, []string{"price_history"}, missing)
}
