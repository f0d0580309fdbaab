package oracle

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	_ "github.com/godror/godror"

	"github.com/jadedragon942/dorm/storage"
	"github.com/jadedragon942/dorm/storage/common"
)

// Dialect talks to Oracle through godror. Unquoted identifiers are stored
// upper case, so column names are normalized before lookups. Inserts hand
// back the generated id with RETURNING ... INTO.
type Dialect struct{}

func New() *Dialect {
	return &Dialect{}
}

func init() {
	storage.Register(New())
}

func (d *Dialect) Name() string { return "oracle" }

func (d *Dialect) Open(ctx context.Context, descriptor string, opts storage.PoolOptions) (*storage.DB, error) {
	return common.OpenSQL("godror", descriptor, opts)
}

func (d *Dialect) Placeholder(n int) string {
	return ":" + strconv.Itoa(n)
}

func (d *Dialect) QuoteIdentifier(name string) string {
	return common.QuoteWith(`"`, `"`, name)
}

func (d *Dialect) NormalizeIdentifier(name string) string {
	return strings.ToUpper(name)
}

func (d *Dialect) ListTablesQuery() string {
	return `SELECT table_name FROM user_tables`
}

func (d *Dialect) DescribeTableQuery() string {
	return `SELECT column_name, data_type FROM all_tab_columns
		WHERE table_name = :1
		ORDER BY owner, column_id`
}

func (d *Dialect) Returning() storage.ReturningMode { return storage.ReturnNone }

func (d *Dialect) DefaultValues() string { return "" }

func (d *Dialect) Timestamp(t time.Time) any {
	return t.UTC()
}

// IDOut binds dest as the out parameter of RETURNING ... INTO.
func (d *Dialect) IDOut(dest *string) any {
	return sql.Out{Dest: dest}
}
