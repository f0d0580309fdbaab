package common

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jadedragon942/dorm/object"
)

// RowScanner turns result rows into Objects keyed by the result's column
// names, in result column order.
type RowScanner struct {
	TableName string
	names     []string
	binary    []bool
	values    []any
	pointers  []any
}

// NewRowScanner prepares a scanner for the columns of rows.
func NewRowScanner(rows *sql.Rows, tableName string) (*RowScanner, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}

	rs := &RowScanner{
		TableName: tableName,
		names:     make([]string, len(types)),
		binary:    make([]bool, len(types)),
		values:    make([]any, len(types)),
		pointers:  make([]any, len(types)),
	}
	for i, ct := range types {
		rs.names[i] = ct.Name()
		rs.binary[i] = IsBinaryType(ct.DatabaseTypeName())
		rs.pointers[i] = &rs.values[i]
	}
	return rs, nil
}

// Scan reads the current row.
func (rs *RowScanner) Scan(rows *sql.Rows) (*object.Object, error) {
	for i := range rs.values {
		rs.values[i] = nil
	}
	if err := rows.Scan(rs.pointers...); err != nil {
		return nil, err
	}

	obj := object.New()
	obj.TableName = rs.TableName
	for i, name := range rs.names {
		v := rs.values[i]
		// Text columns arrive as []byte from several drivers.
		if b, ok := v.([]byte); ok && !rs.binary[i] {
			v = string(b)
		}
		obj.SetField(name, v)
	}
	return obj, nil
}

// GetColumns returns the result column names.
func (rs *RowScanner) GetColumns() []string {
	out := make([]string, len(rs.names))
	copy(out, rs.names)
	return out
}

// ScanAll drains rows into Objects and closes them.
func ScanAll(rows *sql.Rows, tableName string) ([]*object.Object, error) {
	defer rows.Close()

	rs, err := NewRowScanner(rows, tableName)
	if err != nil {
		return nil, err
	}
	out := make([]*object.Object, 0)
	for rows.Next() {
		obj, err := rs.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ScanOne returns the first row, or nil when there is none.
func ScanOne(rows *sql.Rows, tableName string) (*object.Object, error) {
	all, err := ScanAll(rows, tableName)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

// IsBinaryType reports whether a driver type name holds raw bytes.
func IsBinaryType(dbType string) bool {
	switch strings.ToUpper(dbType) {
	case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BYTEA",
		"BINARY", "VARBINARY", "IMAGE", "RAW", "LONG RAW":
		return true
	default:
		return false
	}
}
