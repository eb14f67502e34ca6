// Package database opens the bun handle for the configured driver.
package database

import (
	"context"
	"database/sql"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/goliatone/go-yamdb"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options configures Open.
type Options struct {
	Driver string
	DSN    string
	Debug  bool
}

// Open connects to the store and verifies the connection. sqlite handles
// get foreign keys enabled and a single connection, so in-memory databases
// are shared by every query.
func Open(ctx context.Context, opts Options) (*bun.DB, error) {
	var db *bun.DB

	switch opts.Driver {
	case DriverSQLite, "":
		sqldb, err := sql.Open(sqliteshim.ShimName, opts.DSN)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open sqlite")
		}
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())

		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to enable sqlite foreign keys")
		}

	case DriverPostgres:
		sqldb, err := sql.Open("pgx", opts.DSN)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open postgres")
		}
		db = bun.NewDB(sqldb, pgdialect.New())

	default:
		return nil, goerrors.New(fmt.Sprintf("unsupported database driver %q", opts.Driver), goerrors.CategoryBadInput)
	}

	if opts.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reach the database").
			WithMetadata(map[string]any{"driver": opts.Driver})
	}

	db.RegisterModel((*yamdb.TitleGenre)(nil))

	return db, nil
}

// OpenAndMigrate opens the store and creates the schema.
func OpenAndMigrate(ctx context.Context, opts Options) (*bun.DB, error) {
	db, err := Open(ctx, opts)
	if err != nil {
		return nil, err
	}

	if err := yamdb.CreateSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
