package types

// ArticleRecord is one successfully fetched article. Records are created once
// per fetch and never modified afterwards.
type ArticleRecord struct {
	URL   string
	Title string
	Body  string
}

// Validate reports ErrEmptyBody for records that must not be persisted.
func (r ArticleRecord) Validate() error {
	if r.Body == "" {
		return ErrEmptyBody
	}
	return nil
}

// Field returns the value of the named schema column.
func (r ArticleRecord) Field(name string) (string, bool) {
	switch name {
	case ColumnURL:
		return r.URL, true
	case ColumnTitle:
		return r.Title, true
	case ColumnBody:
		return r.Body, true
	default:
		return "", false
	}
}

// Row converts the record into a table row. Empty fields become missing
// values, the same as an empty cell read back from a file.
func (r ArticleRecord) Row() *Row {
	row := NewRow()
	for _, col := range ArticleSchema.Columns {
		if v, _ := r.Field(col); v != "" {
			row.Set(col, v)
		}
	}
	return row
}
