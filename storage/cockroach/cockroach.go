package cockroach

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/jadedragon942/dorm/storage"
	"github.com/jadedragon942/dorm/storage/common"
	"github.com/jadedragon942/dorm/storage/postgres"
)

// Dialect talks to CockroachDB through a native pgxpool exposed as a
// database/sql handle.
type Dialect struct {
	postgres.Dialect
}

func New() *Dialect {
	return &Dialect{}
}

func init() {
	storage.Register(New())
}

func (d *Dialect) Name() string { return "cockroach" }

func (d *Dialect) Open(ctx context.Context, descriptor string, opts storage.PoolOptions) (*storage.DB, error) {
	cfg, err := pgxpool.ParseConfig(common.WithSSLMode(descriptor, opts.SSLMode))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = int32(opts.MaxConns)
	}
	if opts.IdleTimeout > 0 {
		cfg.MaxConnIdleTime = opts.IdleTimeout
	}
	// Tables can change shape while the pool is live, so no statement
	// descriptions are cached.
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeDescribeExec

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	return storage.NewDB(stdlib.OpenDBFromPool(pool), pool.Close), nil
}

// Timestamp binds a time.Time; pgx encodes it natively.
func (d *Dialect) Timestamp(t time.Time) any {
	return t.UTC()
}
