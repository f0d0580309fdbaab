// Package query builds parameterized CRUD statements for tables discovered at
// runtime. Builders do no I/O.
//
// Table and column names are interpolated into SQL text, so every name is
// checked against an allow-list before any text is assembled: tables against
// the last table listing, columns against the table's known columns. Values
// are always bound through placeholders.
package query

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jadedragon942/dorm/object"
	"github.com/jadedragon942/dorm/storage"
)

var (
	ErrUnknownTable  = errors.New("unknown table")
	ErrUnknownColumn = errors.New("unknown column")
	ErrEmptyRecord   = errors.New("record has no writable columns")
)

const (
	IDColumn        = "id"
	CreatedAtColumn = "created_at"
	UpdatedAtColumn = "updated_at"
)

// Statement is SQL text plus its positional arguments. Columns lists the
// written columns in the order their values appear in Args.
type Statement struct {
	SQL     string
	Args    []any
	Columns []string
	// ReturnsID is set when the caller must append the id out parameter
	// of a RETURNING ... INTO clause as the final argument.
	ReturnsID bool
}

type Builder struct {
	dialect storage.Dialect
	tables  map[string]struct{}
	// Now supplies the value injected into created_at and updated_at.
	Now func() time.Time
}

// NewBuilder returns a builder that accepts only the given table names.
func NewBuilder(d storage.Dialect, tables []string) *Builder {
	set := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		set[t] = struct{}{}
	}
	return &Builder{dialect: d, tables: set, Now: time.Now}
}

func (b *Builder) SelectAll(table string) (Statement, error) {
	qt, err := b.table(table)
	if err != nil {
		return Statement{}, err
	}
	return Statement{SQL: "SELECT * FROM " + qt}, nil
}

func (b *Builder) SelectByID(table string, id any) (Statement, error) {
	qt, err := b.table(table)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		SQL:  fmt.Sprintf("SELECT * FROM %s WHERE %s = %s", qt, b.idColumn(), b.dialect.Placeholder(1)),
		Args: []any{id},
	}, nil
}

// Insert builds an INSERT of rec. created_at is filled with the current time
// when the table has it and rec does not. An id key is never written.
func (b *Builder) Insert(table string, rec *object.Object, known []string) (Statement, error) {
	qt, err := b.table(table)
	if err != nil {
		return Statement{}, err
	}
	w, err := b.writable(table, rec, known, CreatedAtColumn)
	if err != nil {
		return Statement{}, err
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(qt)

	if len(w.columns) == 0 {
		tail := b.dialect.DefaultValues()
		if tail == "" {
			return Statement{}, fmt.Errorf("%w: %s", ErrEmptyRecord, table)
		}
		if b.dialect.Returning() == storage.ReturnOutput {
			sb.WriteString(" OUTPUT INSERTED.*")
		}
		sb.WriteString(" ")
		sb.WriteString(tail)
		if b.dialect.Returning() == storage.ReturnRow {
			sb.WriteString(" RETURNING *")
		}
		return Statement{SQL: sb.String()}, nil
	}

	placeholders := make([]string, len(w.columns))
	for i := range w.columns {
		placeholders[i] = b.dialect.Placeholder(i + 1)
	}

	sb.WriteString(" (")
	sb.WriteString(strings.Join(w.quoted, ", "))
	sb.WriteString(")")
	if b.dialect.Returning() == storage.ReturnOutput {
		sb.WriteString(" OUTPUT INSERTED.*")
	}
	sb.WriteString(" VALUES (")
	sb.WriteString(strings.Join(placeholders, ", "))
	sb.WriteString(")")

	stmt := Statement{Args: w.args, Columns: w.columns}
	switch b.dialect.Returning() {
	case storage.ReturnRow:
		sb.WriteString(" RETURNING *")
	case storage.ReturnNone:
		if _, ok := b.dialect.(storage.ReturningInto); ok {
			fmt.Fprintf(&sb, " RETURNING %s INTO %s", b.idColumn(), b.dialect.Placeholder(len(w.args)+1))
			stmt.ReturnsID = true
		}
	}
	stmt.SQL = sb.String()
	return stmt, nil
}

// Update builds an UPDATE of the row with the given id. SET assignments
// follow rec's key order and id is the final argument. updated_at is filled
// with the current time when the table has it and rec does not.
func (b *Builder) Update(table string, id any, rec *object.Object, known []string) (Statement, error) {
	qt, err := b.table(table)
	if err != nil {
		return Statement{}, err
	}
	w, err := b.writable(table, rec, known, UpdatedAtColumn)
	if err != nil {
		return Statement{}, err
	}
	if len(w.columns) == 0 {
		return Statement{}, fmt.Errorf("%w: %s", ErrEmptyRecord, table)
	}

	assignments := make([]string, len(w.columns))
	for i, qc := range w.quoted {
		assignments[i] = qc + " = " + b.dialect.Placeholder(i+1)
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(qt)
	sb.WriteString(" SET ")
	sb.WriteString(strings.Join(assignments, ", "))
	if b.dialect.Returning() == storage.ReturnOutput {
		sb.WriteString(" OUTPUT INSERTED.*")
	}
	fmt.Fprintf(&sb, " WHERE %s = %s", b.idColumn(), b.dialect.Placeholder(len(w.args)+1))
	if b.dialect.Returning() == storage.ReturnRow {
		sb.WriteString(" RETURNING *")
	}

	return Statement{
		SQL:     sb.String(),
		Args:    append(w.args, id),
		Columns: w.columns,
	}, nil
}

func (b *Builder) Delete(table string, id any) (Statement, error) {
	qt, err := b.table(table)
	if err != nil {
		return Statement{}, err
	}

	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(qt)
	if b.dialect.Returning() == storage.ReturnOutput {
		sb.WriteString(" OUTPUT DELETED.*")
	}
	fmt.Fprintf(&sb, " WHERE %s = %s", b.idColumn(), b.dialect.Placeholder(1))
	if b.dialect.Returning() == storage.ReturnRow {
		sb.WriteString(" RETURNING *")
	}
	return Statement{SQL: sb.String(), Args: []any{id}}, nil
}

func (b *Builder) table(name string) (string, error) {
	if _, ok := b.tables[name]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return b.dialect.QuoteIdentifier(name), nil
}

func (b *Builder) idColumn() string {
	return b.dialect.QuoteIdentifier(b.dialect.NormalizeIdentifier(IDColumn))
}

type writeSet struct {
	columns []string
	quoted  []string
	args    []any
}

// writable walks rec once, producing columns, quoted names and values in
// the same order. stamp is appended when known and missing from rec.
func (b *Builder) writable(table string, rec *object.Object, known []string, stamp string) (writeSet, error) {
	if rec == nil {
		rec = object.New()
	}
	knownSet := make(map[string]struct{}, len(known))
	for _, c := range known {
		knownSet[c] = struct{}{}
	}
	idCol := b.dialect.NormalizeIdentifier(IDColumn)

	var w writeSet
	add := func(col string, v any) {
		w.columns = append(w.columns, col)
		w.quoted = append(w.quoted, b.dialect.QuoteIdentifier(col))
		w.args = append(w.args, v)
	}

	for _, key := range rec.Keys() {
		if key == IDColumn || key == idCol {
			continue
		}
		if _, ok := knownSet[key]; !ok {
			return writeSet{}, fmt.Errorf("%w: %q on table %q", ErrUnknownColumn, key, table)
		}
		v, _ := rec.GetField(key)
		add(key, v)
	}

	stampCol := b.dialect.NormalizeIdentifier(stamp)
	if _, ok := knownSet[stampCol]; ok {
		if _, present := rec.GetField(stampCol); !present {
			add(stampCol, b.dialect.Timestamp(b.Now()))
		}
	}
	return w, nil
}
