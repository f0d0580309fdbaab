package postgres

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/lib/pq"

	"github.com/jadedragon942/dorm/storage"
	"github.com/jadedragon942/dorm/storage/common"
)

// ISOTimestamp is the layout used for timestamps bound as text.
const ISOTimestamp = "2006-01-02T15:04:05.000Z"

// Dialect talks to PostgreSQL through lib/pq. The other PostgreSQL-family
// dialects embed it and override Open.
type Dialect struct{}

func New() *Dialect {
	return &Dialect{}
}

func init() {
	storage.Register(New())
}

func (d *Dialect) Name() string { return "postgres" }

func (d *Dialect) Open(ctx context.Context, descriptor string, opts storage.PoolOptions) (*storage.DB, error) {
	return common.OpenSQL("postgres", common.WithSSLMode(descriptor, opts.SSLMode), opts)
}

func (d *Dialect) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (d *Dialect) QuoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func (d *Dialect) NormalizeIdentifier(name string) string { return name }

func (d *Dialect) ListTablesQuery() string {
	return `SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'`
}

func (d *Dialect) DescribeTableQuery() string {
	return `SELECT column_name, data_type FROM information_schema.columns
		WHERE table_name = $1
		ORDER BY table_schema, ordinal_position`
}

func (d *Dialect) Returning() storage.ReturningMode { return storage.ReturnRow }

func (d *Dialect) DefaultValues() string { return "DEFAULT VALUES" }

func (d *Dialect) Timestamp(t time.Time) any {
	return t.UTC().Format(ISOTimestamp)
}
