package schema

import (
	"encoding/json"
	"testing"
)

func TestNewSchema(t *testing.T) {
	s := New()
	if s == nil {
		t.Fatal("expected non-nil Schema")
	}
	if s.Tables == nil {
		t.Fatal("expected Tables map to be initialized")
	}
	if s.DatabaseName != "" {
		t.Errorf("expected empty DatabaseName, got %q", s.DatabaseName)
	}
}

func TestSetDatabaseName(t *testing.T) {
	s := New()
	s.SetDatabaseName("testdb")
	if s.DatabaseName != "testdb" {
		t.Errorf("expected DatabaseName to be 'testdb', got %q", s.DatabaseName)
	}
}

func TestGetTestSchema(t *testing.T) {
	s := GetTestSchema()
	if s == nil {
		t.Fatal("expected non-nil Schema from GetTestSchema")
	}
	if len(s.Tables) != 1 {
		t.Fatalf("expected 1 table in schema, got %d", len(s.Tables))
	}
	users, ok := s.GetTable("users")
	if !ok {
		t.Fatal("expected users table")
	}
	want := []string{"id", "email", "password", "created_at"}
	got := users.ColumnNames()
	if len(got) != len(want) {
		t.Fatalf("expected %d columns, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected column %d to be %q, got %q", i, want[i], got[i])
		}
	}
}

func TestAddTableNil(t *testing.T) {
	s := New()
	s.AddTable(nil)
	if len(s.Tables) != 0 {
		t.Error("expected no tables to be added when nil is passed")
	}
}

func TestTableNamesKeepOrder(t *testing.T) {
	s := New()
	s.AddTable(NewTableSchema("votes"))
	s.AddTable(NewTableSchema("users"))
	s.AddTable(NewTableSchema("votes"))

	names := s.TableNames()
	if len(names) != 2 || names[0] != "votes" || names[1] != "users" {
		t.Errorf("unexpected table order %v", names)
	}
}

func TestNewTableSchema(t *testing.T) {
	ts := NewTableSchema("products")
	if ts == nil {
		t.Fatal("expected non-nil TableSchema")
	}
	if ts.TableName != "products" {
		t.Errorf("expected TableName to be 'products', got %q", ts.TableName)
	}
	if ts.Fields == nil {
		t.Error("expected Fields map to be initialized")
	}
}

func TestAddField(t *testing.T) {
	ts := NewTableSchema("orders")
	ts.AddField(ColumnData{Name: "id", DataType: "int"})
	if len(ts.Fields) != 1 {
		t.Errorf("expected 1 field, got %d", len(ts.Fields))
	}
	if ts.Fields["id"].DataType != "int" {
		t.Errorf("expected DataType 'int', got %q", ts.Fields["id"].DataType)
	}
	if len(ts.FieldOrder) != 1 || ts.FieldOrder[0] != "id" {
		t.Errorf("expected FieldOrder to contain 'id'")
	}
	if !ts.HasField("id") || ts.HasField("missing") {
		t.Error("HasField mismatch")
	}
}

func TestAddFieldEmptyName(t *testing.T) {
	ts := NewTableSchema("orders")
	ts.AddField(ColumnData{Name: "", DataType: "int"})
	if len(ts.Fields) != 0 {
		t.Error("expected no fields to be added with empty name")
	}
}

func TestAddFieldDuplicateKeepsFirstPosition(t *testing.T) {
	ts := FromColumns("dup", []ColumnData{
		{Name: "id", DataType: "integer"},
		{Name: "name", DataType: "text"},
		{Name: "id", DataType: "bigint"},
	})
	if len(ts.FieldOrder) != 2 {
		t.Fatalf("expected 2 fields in FieldOrder, got %d", len(ts.FieldOrder))
	}
	if ts.FieldOrder[0] != "id" {
		t.Errorf("expected id first, got %q", ts.FieldOrder[0])
	}
}

func TestMultipleFieldsOrder(t *testing.T) {
	ts := NewTableSchema("multi")
	fields := []ColumnData{
		{Name: "a", DataType: "int"},
		{Name: "b", DataType: "string"},
		{Name: "c", DataType: "bool"},
	}
	for _, f := range fields {
		ts.AddField(f)
	}
	if len(ts.FieldOrder) != 3 {
		t.Fatalf("expected 3 fields in FieldOrder, got %d", len(ts.FieldOrder))
	}
	for i, name := range []string{"a", "b", "c"} {
		if ts.FieldOrder[i] != name {
			t.Errorf("expected FieldOrder[%d] = %q, got %q", i, name, ts.FieldOrder[i])
		}
	}
	cols := ts.Columns()
	if cols[1].DataType != "string" {
		t.Errorf("expected second column type 'string', got %q", cols[1].DataType)
	}
}

func TestSchemaMarshalJSON(t *testing.T) {
	data, err := json.Marshal(GetTestSchema())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"users":[{"column_name":"id","data_type":"integer"},{"column_name":"email","data_type":"character varying"},{"column_name":"password","data_type":"character varying"},{"column_name":"created_at","data_type":"timestamp with time zone"}]}`
	if string(data) != want {
		t.Errorf("unexpected JSON:\n%s", data)
	}
}
