package types

// Row is a single table record. A column that is absent from Fields is a
// missing value; an empty string read from a file is stored as absent.
type Row struct {
	Fields map[string]string
}

// NewRow creates an empty Row.
func NewRow() *Row {
	return &Row{Fields: make(map[string]string)}
}

// Set sets a field value.
func (r *Row) Set(key, value string) {
	r.Fields[key] = value
}

// Get retrieves a field value and whether it is present.
func (r *Row) Get(key string) (string, bool) {
	v, ok := r.Fields[key]
	return v, ok
}

// GetString retrieves a field value, or "" when missing.
func (r *Row) GetString(key string) string {
	return r.Fields[key]
}

// Has returns true if the field is present.
func (r *Row) Has(key string) bool {
	_, ok := r.Fields[key]
	return ok
}

// Delete marks a field as missing.
func (r *Row) Delete(key string) {
	delete(r.Fields, key)
}

// Clone creates a deep copy of the row.
func (r *Row) Clone() *Row {
	clone := &Row{Fields: make(map[string]string, len(r.Fields))}
	for k, v := range r.Fields {
		clone.Fields[k] = v
	}
	return clone
}

// Table is an ordered set of rows sharing one column layout.
type Table struct {
	Columns  []string
	Rows     []*Row
	Manifest *Manifest
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Append adds a row to the end of the table.
func (t *Table) Append(row *Row) {
	t.Rows = append(t.Rows, row)
}

// HasColumn reports whether col is part of the layout.
func (t *Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// AddColumn appends col to the layout if it is not already present.
func (t *Table) AddColumn(col string) {
	if !t.HasColumn(col) {
		t.Columns = append(t.Columns, col)
	}
}

// AnyMissing reports whether any row lacks a value for col.
func (t *Table) AnyMissing(col string) bool {
	for _, row := range t.Rows {
		if !row.Has(col) {
			return true
		}
	}
	return false
}

// Complete reports whether row has a value for every column of the table.
func (t *Table) Complete(row *Row) bool {
	for _, col := range t.Columns {
		if !row.Has(col) {
			return false
		}
	}
	return true
}

// Clone creates a deep copy of the table.
func (t *Table) Clone() *Table {
	clone := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]*Row, len(t.Rows)),
	}
	for i, row := range t.Rows {
		clone.Rows[i] = row.Clone()
	}
	if t.Manifest != nil {
		m := *t.Manifest
		m.Columns = append([]string(nil), t.Manifest.Columns...)
		clone.Manifest = &m
	}
	return clone
}

// Record returns the cells of row in column order; missing values are "".
func (t *Table) Record(row *Row) []string {
	out := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		out[i] = row.GetString(col)
	}
	return out
}
