package common

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jadedragon942/dorm/storage"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// OpenSQL opens a database/sql pool for driverName and applies opts.
func OpenSQL(driverName, dsn string, opts storage.PoolOptions) (*storage.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s pool: %w", driverName, err)
	}
	ApplyPoolOptions(db, opts)
	return storage.NewDB(db, nil), nil
}

// ApplyPoolOptions bounds open connections and recycles idle ones. Requests
// beyond MaxConns wait inside database/sql for a free connection.
func ApplyPoolOptions(db *sql.DB, opts storage.PoolOptions) {
	if opts.MaxConns > 0 {
		db.SetMaxOpenConns(opts.MaxConns)
		db.SetMaxIdleConns(opts.MaxConns)
	}
	if opts.IdleTimeout > 0 {
		db.SetConnMaxIdleTime(opts.IdleTimeout)
	}
}
