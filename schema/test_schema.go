package schema

// GetTestSchema describes the users table the HTTP tests seed and expect back:
// users(id, email, password, created_at).
func GetTestSchema() *Schema {
	sch := New()

	table := NewTableSchema("users")
	table.AddField(ColumnData{Name: "id", DataType: "integer"})
	table.AddField(ColumnData{Name: "email", DataType: "character varying"})
	table.AddField(ColumnData{Name: "password", DataType: "character varying"})
	table.AddField(ColumnData{Name: "created_at", DataType: "timestamp with time zone"})

	sch.AddTable(table)

	return sch
}
