package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jadedragon942/dorm/storage"
	"github.com/jadedragon942/dorm/storage/common"
	"github.com/jadedragon942/dorm/storage/postgres"
)

// BusyTimeout is added to file descriptors so pooled writers wait on the
// database lock instead of failing.
const BusyTimeout = "_busy_timeout=5000"

type Dialect struct{}

func New() *Dialect {
	return &Dialect{}
}

func init() {
	storage.Register(New())
}

func (d *Dialect) Name() string { return "sqlite" }

// Open accepts a file path, a file: URI, sqlite://path or :memory:.
func (d *Dialect) Open(ctx context.Context, descriptor string, opts storage.PoolOptions) (*storage.DB, error) {
	dsn := strings.TrimPrefix(descriptor, "sqlite://")
	memory := dsn == ":memory:"
	if memory {
		dsn = sharedMemoryDSN()
	}
	if !strings.Contains(dsn, "_busy_timeout") {
		if strings.Contains(dsn, "?") {
			dsn += "&" + BusyTimeout
		} else {
			dsn += "?" + BusyTimeout
		}
	}

	db, err := common.OpenSQL("sqlite3", dsn, opts)
	if err != nil {
		return nil, err
	}
	if memory {
		// The database lives only while a connection to it is open.
		db.SetConnMaxIdleTime(0)
		db.SetConnMaxLifetime(0)
	}
	return db, nil
}

// sharedMemoryDSN names a fresh in-memory database that every connection of
// one pool shares, and that no other pool can see.
func sharedMemoryDSN() string {
	return "file:dorm-" + uuid.NewString() + "?mode=memory&cache=shared"
}

func (d *Dialect) Placeholder(int) string { return "?" }

func (d *Dialect) QuoteIdentifier(name string) string {
	return common.QuoteWith(`"`, `"`, name)
}

func (d *Dialect) NormalizeIdentifier(name string) string { return name }

func (d *Dialect) ListTablesQuery() string {
	return `SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`
}

func (d *Dialect) DescribeTableQuery() string {
	return `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`
}

func (d *Dialect) Returning() storage.ReturningMode { return storage.ReturnRow }

func (d *Dialect) DefaultValues() string { return "DEFAULT VALUES" }

func (d *Dialect) Timestamp(t time.Time) any {
	return t.UTC().Format(postgres.ISOTimestamp)
}
