package storage

import (
	"context"
	"database/sql"
	"time"
)

// ReturningMode says how a dialect hands back the row touched by a write.
type ReturningMode int

const (
	// ReturnRow appends RETURNING * to INSERT, UPDATE and DELETE.
	ReturnRow ReturningMode = iota
	// ReturnOutput places OUTPUT INSERTED.* or OUTPUT DELETED.* before the
	// VALUES or WHERE clause.
	ReturnOutput
	// ReturnNone means the caller re-reads the row by id.
	ReturnNone
)

func (m ReturningMode) String() string {
	switch m {
	case ReturnRow:
		return "returning"
	case ReturnOutput:
		return "output"
	case ReturnNone:
		return "none"
	default:
		return "unknown"
	}
}

// PoolOptions bounds the pool a dialect opens.
type PoolOptions struct {
	MaxConns    int
	IdleTimeout time.Duration
	// SSLMode is appended to PostgreSQL URLs that do not name one.
	SSLMode string
}

// Dialect is the per-engine knowledge needed to introspect a catalog and
// build statements for it.
type Dialect interface {
	Name() string
	// Open opens a bounded pool. It does not ping.
	Open(ctx context.Context, descriptor string, opts PoolOptions) (*DB, error)
	// Placeholder returns the bind marker for the n-th argument, starting at 1.
	Placeholder(n int) string
	QuoteIdentifier(name string) string
	// NormalizeIdentifier maps a lower-case column name to the case the
	// catalog reports it in.
	NormalizeIdentifier(name string) string
	// ListTablesQuery lists base tables of the default schema, one name per row.
	ListTablesQuery() string
	// DescribeTableQuery takes the table name as its only argument and yields
	// (column name, declared type) rows in catalog order.
	DescribeTableQuery() string
	Returning() ReturningMode
	// DefaultValues is the insert tail used for an empty record, or "" when
	// the engine has none.
	DefaultValues() string
	// Timestamp converts t into the bind value used for created_at and
	// updated_at.
	Timestamp(t time.Time) any
}

// ReturningInto is implemented by ReturnNone dialects that can hand back the
// generated id through an out parameter.
type ReturningInto interface {
	IDOut(dest *string) any
}

// DB is an open pool. Close also releases any native pool the *sql.DB was
// built on.
type DB struct {
	*sql.DB
	closeFn func()
}

func NewDB(db *sql.DB, closeFn func()) *DB {
	return &DB{DB: db, closeFn: closeFn}
}

func (d *DB) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	err := d.DB.Close()
	if d.closeFn != nil {
		d.closeFn()
	}
	return err
}
