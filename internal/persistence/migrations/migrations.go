// Package migrations embeds the goose schema migrations for the SQL snapshot
// backends and applies them.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// SQLite returns the migrations for the sqlite backend.
func SQLite() fs.FS {
	return sub("sqlite")
}

// Postgres returns the migrations for the postgres backend.
func Postgres() fs.FS {
	return sub("postgres")
}

func sub(dir string) fs.FS {
	fsys, err := fs.Sub(files, dir)
	if err != nil {
		panic(err)
	}
	return fsys
}

// Apply runs every pending migration for dialect against db and returns the
// resulting schema version. db is left open.
func Apply(ctx context.Context, dialect goose.Dialect, db *sql.DB) (int64, error) {
	var fsys fs.FS
	switch dialect {
	case goose.DialectSQLite3:
		fsys = SQLite()
	case goose.DialectPostgres:
		fsys = Postgres()
	default:
		return 0, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return 0, fmt.Errorf("migrations: create provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return 0, fmt.Errorf("migrations: up: %w", err)
	}
	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrations: read version: %w", err)
	}
	return version, nil
}
