package schema

import "encoding/json"

// Schema is the set of tables discovered in one database.
type Schema struct {
	DatabaseName string
	Tables       map[string]*TableSchema // Maps table names to their schemas
	FieldOrder   []string                // Table names in catalog order
}

// TableSchema describes one table. FieldOrder follows the catalog's column
// enumeration order, which carries no semantic meaning.
type TableSchema struct {
	TableName  string
	Fields     map[string]ColumnData
	FieldOrder []string
}

// ColumnData is a column as reported by the catalog.
type ColumnData struct {
	Name     string `json:"column_name"`
	DataType string `json:"data_type"`
}

func New() *Schema {
	return &Schema{
		Tables: make(map[string]*TableSchema),
	}
}

func (s *Schema) SetDatabaseName(name string) {
	s.DatabaseName = name
}

func (s *Schema) AddTable(table *TableSchema) {
	if table == nil {
		return
	}
	if _, exists := s.Tables[table.TableName]; !exists {
		s.FieldOrder = append(s.FieldOrder, table.TableName)
	}
	s.Tables[table.TableName] = table
}

func (s *Schema) GetTable(name string) (*TableSchema, bool) {
	table, exists := s.Tables[name]
	return table, exists
}

// TableNames returns table names in the order they were added.
func (s *Schema) TableNames() []string {
	out := make([]string, len(s.FieldOrder))
	copy(out, s.FieldOrder)
	return out
}

// MarshalJSON renders the schema as table name to ordered column list, the
// shape returned to clients after connecting.
func (s *Schema) MarshalJSON() ([]byte, error) {
	out := make(map[string][]ColumnData, len(s.Tables))
	for name, tbl := range s.Tables {
		out[name] = tbl.Columns()
	}
	return json.Marshal(out)
}

func NewTableSchema(name string) *TableSchema {
	return &TableSchema{
		TableName: name,
		Fields:    make(map[string]ColumnData),
	}
}

// AddField appends a column. A column name seen twice (the same table name in
// two schemas) keeps its first position.
func (ts *TableSchema) AddField(field ColumnData) {
	if field.Name == "" {
		return
	}
	if _, exists := ts.Fields[field.Name]; !exists {
		ts.FieldOrder = append(ts.FieldOrder, field.Name)
	}
	ts.Fields[field.Name] = field
}

func (ts *TableSchema) HasField(name string) bool {
	_, ok := ts.Fields[name]
	return ok
}

// Columns returns the columns in catalog order.
func (ts *TableSchema) Columns() []ColumnData {
	out := make([]ColumnData, 0, len(ts.FieldOrder))
	for _, name := range ts.FieldOrder {
		out = append(out, ts.Fields[name])
	}
	return out
}

// ColumnNames returns the column names in catalog order.
func (ts *TableSchema) ColumnNames() []string {
	out := make([]string, len(ts.FieldOrder))
	copy(out, ts.FieldOrder)
	return out
}

// FromColumns builds a TableSchema from catalog rows.
func FromColumns(name string, columns []ColumnData) *TableSchema {
	ts := NewTableSchema(name)
	for _, c := range columns {
		ts.AddField(c)
	}
	return ts
}
