package types

// Column names shared by the extract writer and the transform reader.
const (
	ColumnBody         = "body"
	ColumnTitle        = "title"
	ColumnURL          = "url"
	ColumnNewspaperUID = "newspaper_uid"
	ColumnHost         = "host"
	ColumnUID          = "uid"
	ColumnNTokensTitle = "n_tokens_title"
	ColumnNTokensBody  = "n_tokens_body"
)

// Schema is a fixed, versioned, ordered list of columns.
type Schema struct {
	Name    string
	Version int
	Columns []string
}

// ArticleSchema is the layout of the extract output.
var ArticleSchema = Schema{
	Name:    "articles",
	Version: 1,
	Columns: []string{ColumnBody, ColumnTitle, ColumnURL},
}

// CleanSchema is the layout of the transform output. uid is the key and
// always comes first.
var CleanSchema = Schema{
	Name:    "clean_articles",
	Version: 1,
	Columns: []string{
		ColumnUID,
		ColumnBody,
		ColumnTitle,
		ColumnURL,
		ColumnNewspaperUID,
		ColumnHost,
		ColumnNTokensTitle,
		ColumnNTokensBody,
	},
}

// Has reports whether the schema contains col.
func (s Schema) Has(col string) bool {
	for _, c := range s.Columns {
		if c == col {
			return true
		}
	}
	return false
}
