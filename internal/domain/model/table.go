package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumns reports a table without a required column.
var ErrMissingColumns = errors.New("missing required columns")

// MissingColumnsError names every missing column of one table.
type MissingColumnsError struct {
	Table   string
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s in %s: %s", ErrMissingColumns, e.Table, strings.Join(e.Missing, ", "))
}

func (e *MissingColumnsError) Unwrap() error { return ErrMissingColumns }

// Table is a string-typed rectangular table as read from CSV.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
	index   map[string]int
}

// NewTable creates an empty table with the given header.
func NewTable(name string, columns ...string) *Table {
	t := &Table{Name: name, Columns: append([]string(nil), columns...)}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Col returns the position of a column or -1.
func (t *Table) Col(name string) int {
	if t.index == nil {
		t.reindex()
	}
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Has reports whether the column exists.
func (t *Table) Has(name string) bool { return t.Col(name) >= 0 }

// Require fails with a MissingColumnsError naming every absent column.
func (t *Table) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Table: t.Name, Missing: missing}
	}
	return nil
}

// Get returns the cell at row r, column name, or "" when absent.
func (t *Table) Get(r int, name string) string {
	c := t.Col(name)
	if c < 0 || c >= len(t.Rows[r]) {
		return ""
	}
	return t.Rows[r][c]
}

// Set writes a cell, adding the column first if needed.
func (t *Table) Set(r int, name, value string) {
	c := t.Col(name)
	if c < 0 {
		c = t.AddColumn(name)
	}
	for len(t.Rows[r]) <= c {
		t.Rows[r] = append(t.Rows[r], "")
	}
	t.Rows[r][c] = value
}

// AddColumn appends an empty column and returns its position. An existing
// column is reused.
func (t *Table) AddColumn(name string) int {
	if c := t.Col(name); c >= 0 {
		return c
	}
	t.Columns = append(t.Columns, name)
	c := len(t.Columns) - 1
	t.index[name] = c
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], "")
	}
	return c
}

// Append adds a row, padding or truncating it to the header width.
func (t *Table) Append(row []string) {
	out := make([]string, len(t.Columns))
	copy(out, row)
	t.Rows = append(t.Rows, out)
}

// Filter returns a table with the rows for which keep is true. Row slices
// are shared with t.
func (t *Table) Filter(keep func(r int) bool) *Table {
	out := NewTable(t.Name, t.Columns...)
	for r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, t.Rows[r])
		}
	}
	return out
}
