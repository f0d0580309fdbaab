package yugabyte

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/jadedragon942/dorm/storage"
	"github.com/jadedragon942/dorm/storage/common"
	"github.com/jadedragon942/dorm/storage/postgres"
)

// Dialect talks to YugabyteDB YSQL through the pgx database/sql driver.
type Dialect struct {
	postgres.Dialect
}

func New() *Dialect {
	return &Dialect{}
}

func init() {
	storage.Register(New())
}

func (d *Dialect) Name() string { return "yugabyte" }

func (d *Dialect) Open(ctx context.Context, descriptor string, opts storage.PoolOptions) (*storage.DB, error) {
	cfg, err := pgx.ParseConfig(common.WithSSLMode(descriptor, opts.SSLMode))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	// Tables can change shape while the pool is live, so no statement
	// descriptions are cached.
	cfg.DefaultQueryExecMode = pgx.QueryExecModeDescribeExec

	db := stdlib.OpenDB(*cfg)
	common.ApplyPoolOptions(db, opts)
	return storage.NewDB(db, nil), nil
}

func (d *Dialect) Timestamp(t time.Time) any {
	return t.UTC()
}
