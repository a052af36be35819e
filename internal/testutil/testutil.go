package testutil

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"

	"github.com/nkiryanov/userbook/internal/db"
)

// FreeAddr returns 'localhost:<port>' with a port nobody listens on right now
func FreeAddr(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:")
	require.NoError(t, err, "can't acquire free port")
	defer ln.Close() // nolint:errcheck

	return fmt.Sprintf("localhost:%d", ln.Addr().(*net.TCPAddr).Port)
}

// OpenSQLite opens in-memory database with users schema, closed when the test ends
func OpenSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.OpenSQLite(t.Context(), ":memory:")
	require.NoError(t, err, "in-memory sqlite should open")
	t.Cleanup(func() { _ = db.CloseSQLite(gdb) })

	return gdb
}

// Postgres is a throwaway database with users schema declared
type Postgres struct {
	DSN string

	// Tests open transactions on it, the service itself runs on a single connection
	Pool *pgxpool.Pool
}

// StartPostgres runs postgres in docker for the test and removes it afterwards.
// Skips the test if docker is not available: sqlite tests cover the same behavior without it
func StartPostgres(t *testing.T) *Postgres {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	container, err := postgres.Run(t.Context(),
		"postgres:17-alpine",
		postgres.WithDatabase("userbook-test"),
		postgres.WithUsername("userbook"),
		postgres.WithPassword("pwd"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "postgres container should start")

	dsn, err := container.ConnectionString(t.Context(), "sslmode=disable")
	require.NoError(t, err, "postgres container should expose connection string")

	require.NoError(t, db.MigratePostgres(dsn), "users schema should be declared")

	pool, err := pgxpool.New(t.Context(), dsn)
	require.NoError(t, err, "pool should connect to postgres")
	t.Cleanup(pool.Close)

	return &Postgres{DSN: dsn, Pool: pool}
}

type beginner interface {
	Begin(context.Context) (pgx.Tx, error)
}

// WithTx runs fn in a transaction that is always rolled back
func WithTx(t *testing.T, b beginner, fn func(tx pgx.Tx)) {
	t.Helper()

	tx, err := b.Begin(t.Context())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, tx.Rollback(context.Background()))
	}()

	fn(tx)
}
