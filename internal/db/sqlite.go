package db

import (
	"context"
	"fmt"

	"github.com/samber/oops"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// STRICT tables can't get a constrained column later, so the field is declared together with the table.
// length() stops counting at the first NUL, so NUL is rejected to keep the limit exact
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		username TEXT NOT NULL CHECK (length(username) < 14 AND instr(username, char(0)) = 0)
	) STRICT`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_username_idx ON users (username)`,
}

// Open embedded sqlite database at path (':memory:' works too) and declare schema
func OpenSQLite(ctx context.Context, path string) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("cant open sqlite database. Err: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("cant get sqlite connection. Err: %w", err)
	}

	// Keep exactly one connection forever: it is what repository.Guard serializes,
	// and ':memory:' database lives as long as its connection
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	if err := DeclareSQLiteSchema(ctx, gdb); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return gdb, nil
}

// Declare schema in one transaction. Repeated calls are no-op
func DeclareSQLiteSchema(ctx context.Context, gdb *gorm.DB) error {
	err := gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range sqliteSchema {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return oops.With("driver", DriverSQLite, "context", "failed to declare schema").Wrap(err)
	}

	return nil
}

func CloseSQLite(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
