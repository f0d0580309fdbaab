package infoschema

import (
	"context"
	"fmt"

	"github.com/jadedragon942/dorm/schema"
	"github.com/jadedragon942/dorm/storage"
	"github.com/jadedragon942/dorm/storage/common"
)

type Parser struct {
	q common.Querier
	d storage.Dialect
}

func NewParser(q common.Querier, d storage.Dialect) *Parser {
	return &Parser{q: q, d: d}
}

// ListTables returns the base tables of the default schema in catalog order.
func (p *Parser) ListTables(ctx context.Context) ([]string, error) {
	rows, err := p.q.QueryContext(ctx, p.d.ListTablesQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	tables := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// DescribeTable returns the columns of every table called name, whatever
// schema owns it. A table that does not exist yields an empty slice and no
// error. A column name reported twice keeps its first position.
func (p *Parser) DescribeTable(ctx context.Context, name string) ([]schema.ColumnData, error) {
	rows, err := p.q.QueryContext(ctx, p.d.DescribeTableQuery(), name)
	if err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", name, err)
	}
	defer rows.Close()

	columns := make([]schema.ColumnData, 0)
	seen := make(map[string]struct{})
	for rows.Next() {
		var col schema.ColumnData
		if err := rows.Scan(&col.Name, &col.DataType); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", name, err)
		}
		if _, dup := seen[col.Name]; dup {
			continue
		}
		seen[col.Name] = struct{}{}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// ParseSchema lists every table and describes each one.
func (p *Parser) ParseSchema(ctx context.Context) (*schema.Schema, error) {
	s := schema.New()
	s.SetDatabaseName(p.d.Name())

	tables, err := p.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range tables {
		columns, err := p.DescribeTable(ctx, name)
		if err != nil {
			return nil, err
		}
		s.AddTable(schema.FromColumns(name, columns))
	}
	return s, nil
}

func ListTables(ctx context.Context, q common.Querier, d storage.Dialect) ([]string, error) {
	return NewParser(q, d).ListTables(ctx)
}

func DescribeTable(ctx context.Context, q common.Querier, d storage.Dialect, name string) ([]schema.ColumnData, error) {
	return NewParser(q, d).DescribeTable(ctx, name)
}

// Snapshot returns every table and its columns.
func Snapshot(ctx context.Context, q common.Querier, d storage.Dialect) (*schema.Schema, error) {
	return NewParser(q, d).ParseSchema(ctx)
}
