package table

import (
	"fmt"
	"strings"
)

// Row maps a column name to its value. A nil value means missing.
type Row map[string]any

// Table is an ordered set of rows sharing one column set.
type Table struct {
	Columns []string
	Rows    []Row
}

// SchemaError reports a column that a caller asked for but the table does not have.
type SchemaError struct {
	Column    string
	Available []string
}

func (e *SchemaError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("column %q not found (table has no columns)", e.Column)
	}
	return fmt.Sprintf("column %q not found (available: %s)", e.Column, strings.Join(e.Available, ", "))
}

// New returns an empty table with the given columns.
func New(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Require returns a *SchemaError for the first name not present in the table.
func (t *Table) Require(names ...string) error {
	for _, n := range names {
		if !t.HasColumn(n) {
			avail := make([]string, len(t.Columns))
			copy(avail, t.Columns)
			return &SchemaError{Column: n, Available: avail}
		}
	}
	return nil
}

// Append adds a row built from values in column order. Missing trailing values are nil.
func (t *Table) Append(values ...any) {
	r := make(Row, len(t.Columns))
	for i, c := range t.Columns {
		if i < len(values) {
			r[c] = values[i]
		} else {
			r[c] = nil
		}
	}
	t.Rows = append(t.Rows, r)
}

// Column returns the values of one column in row order.
func (t *Table) Column(name string) ([]any, error) {
	if err := t.Require(name); err != nil {
		return nil, err
	}
	out := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[name]
	}
	return out, nil
}

// Clone deep-copies the column list and every row map. Cell values are copied by assignment.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := New(t.Columns...)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// Clone copies the row map.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Records renders the table as string records with the header first, the shape
// encoding/csv and spreadsheet writers expect.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	header := make([]string, len(t.Columns))
	copy(header, t.Columns)
	out = append(out, header)
	for _, r := range t.Rows {
		rec := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			rec[i] = FormatValue(r[c])
		}
		out = append(out, rec)
	}
	return out
}
