package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Run embedded migrations
// Every statement in migrations is idempotent, so it is safe to apply them on a database created by hand
// dsn: database source name in format postgres://...
func MigratePostgres(dsn string) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}

	migrator, err := migrate.NewWithSourceInstance(
		"iofs",
		source,
		strings.NewReplacer(
			"postgres://", "pgx5://", // golang-migrate expects dsn in format 'pgx5://...' only, make it happy with 'postgres://...'
			"postgresql://", "pgx5://",
		).Replace(dsn),
	)
	if err != nil {
		return oops.With("driver", DriverPostgres, "context", "failed to prepare migrator").Wrap(err)
	}
	defer func() { _, _ = migrator.Close() }()

	err = migrator.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.With("driver", DriverPostgres, "context", "failed to declare schema").Wrap(err)
	}

	return nil
}

// Open the one and only connection to postgres
// pgx.Conn is not safe for concurrent use, wrap it with repository.Guard
func ConnectPostgres(ctx context.Context, dsn string) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("cant connect to postgres. Err: %w", err)
	}

	return conn, nil
}

func ConnectAndMigratePostgres(ctx context.Context, dsn string) (*pgx.Conn, error) {
	err := MigratePostgres(dsn)
	if err != nil {
		return nil, err
	}

	return ConnectPostgres(ctx, dsn)
}
