package tidb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/jadedragon942/dorm/storage"
	"github.com/jadedragon942/dorm/storage/common"
)

// Dialect talks to TiDB and MySQL through go-sql-driver/mysql. Neither engine
// returns rows from writes, so callers re-read by id.
type Dialect struct {
	name string
}

func New() *Dialect {
	return &Dialect{name: "tidb"}
}

func init() {
	storage.Register(New())
	storage.Register(&Dialect{name: "mysql"})
}

func (d *Dialect) Name() string { return d.name }

func (d *Dialect) Open(ctx context.Context, descriptor string, opts storage.PoolOptions) (*storage.DB, error) {
	cfg, err := mysql.ParseDSN(descriptor)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}
	db := sql.OpenDB(connector)
	common.ApplyPoolOptions(db, opts)
	return storage.NewDB(db, nil), nil
}

func (d *Dialect) Placeholder(int) string { return "?" }

func (d *Dialect) QuoteIdentifier(name string) string {
	return common.QuoteWith("`", "`", name)
}

func (d *Dialect) NormalizeIdentifier(name string) string { return name }

func (d *Dialect) ListTablesQuery() string {
	return `SELECT table_name FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'`
}

func (d *Dialect) DescribeTableQuery() string {
	return `SELECT column_name, data_type FROM information_schema.columns
		WHERE table_name = ?
		ORDER BY table_schema, ordinal_position`
}

func (d *Dialect) Returning() storage.ReturningMode { return storage.ReturnNone }

func (d *Dialect) DefaultValues() string { return "() VALUES ()" }

func (d *Dialect) Timestamp(t time.Time) any {
	return t.UTC()
}
