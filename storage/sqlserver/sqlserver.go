package sqlserver

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/jadedragon942/dorm/storage"
	"github.com/jadedragon942/dorm/storage/common"
)

// Dialect talks to SQL Server through go-mssqldb. Writes hand back rows with
// OUTPUT INSERTED.* and OUTPUT DELETED.*.
type Dialect struct{}

func New() *Dialect {
	return &Dialect{}
}

func init() {
	storage.Register(New())
}

func (d *Dialect) Name() string { return "sqlserver" }

func (d *Dialect) Open(ctx context.Context, descriptor string, opts storage.PoolOptions) (*storage.DB, error) {
	connector, err := mssql.NewConnector(descriptor)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	db := sql.OpenDB(connector)
	common.ApplyPoolOptions(db, opts)
	return storage.NewDB(db, nil), nil
}

func (d *Dialect) Placeholder(n int) string {
	return "@p" + strconv.Itoa(n)
}

func (d *Dialect) QuoteIdentifier(name string) string {
	return common.QuoteWith("[", "]", name)
}

func (d *Dialect) NormalizeIdentifier(name string) string { return name }

func (d *Dialect) ListTablesQuery() string {
	return `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_TYPE = 'BASE TABLE'`
}

func (d *Dialect) DescribeTableQuery() string {
	return `SELECT COLUMN_NAME, DATA_TYPE FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_NAME = @p1
		ORDER BY TABLE_SCHEMA, ORDINAL_POSITION`
}

func (d *Dialect) Returning() storage.ReturningMode { return storage.ReturnOutput }

func (d *Dialect) DefaultValues() string { return "DEFAULT VALUES" }

func (d *Dialect) Timestamp(t time.Time) any {
	return t.UTC()
}
