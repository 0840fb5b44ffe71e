package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/newsetl/internal/types"
)

// ArticlesFileName returns the extract output name for a site and run date:
// {site}_{YYYY-MM-DD}_articles.{ext}.
func ArticlesFileName(site string, date time.Time, ext string) string {
	return fmt.Sprintf("%s_%s_articles.%s", site, date.Format(types.RunDateLayout), ext)
}

// DatasetWriter writes the records of an extraction run as a table with the
// fixed article schema.
type DatasetWriter struct {
	dir    string
	ext    string
	schema types.Schema
	logger *slog.Logger
}

// NewDatasetWriter creates a writer that places files in dir.
func NewDatasetWriter(dir, ext string, logger *slog.Logger) *DatasetWriter {
	if ext == "" {
		ext = "csv"
	}
	return &DatasetWriter{
		dir:    dir,
		ext:    ext,
		schema: types.ArticleSchema,
		logger: logger.With("component", "dataset_writer"),
	}
}

// Path returns where the table for site and date is written.
func (w *DatasetWriter) Path(site string, date time.Time) string {
	return filepath.Join(w.dir, ArticlesFileName(site, date, w.ext))
}

// Table builds the article table for records. Every record must carry a
// body. The manifest records the site and schema.
func (w *DatasetWriter) Table(site string, date time.Time, records []types.ArticleRecord) (*types.Table, error) {
	table := types.NewTable(w.schema.Columns...)
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, &types.StorageError{
				Backend: "csv",
				Err:     fmt.Errorf("record %s: %w", rec.URL, err),
			}
		}
		table.Append(rec.Row())
	}

	table.Manifest = &types.Manifest{
		NewspaperUID:  site,
		RunID:         uuid.NewString(),
		RunDate:       date.Format(types.RunDateLayout),
		Stage:         types.StageExtract,
		Schema:        w.schema.Name,
		SchemaVersion: w.schema.Version,
	}
	return table, nil
}

// Write persists records for site with their manifest and returns the
// table and its path.
func (w *DatasetWriter) Write(site string, date time.Time, records []types.ArticleRecord) (*types.Table, string, error) {
	table, err := w.Table(site, date, records)
	if err != nil {
		return nil, "", err
	}

	path := w.Path(site, date)
	if err := WriteTable(path, table); err != nil {
		return nil, "", err
	}

	w.logger.Info("dataset written", "path", path, "site", site, "rows", table.Len())
	return table, path, nil
}

// WriteTable writes table as CSV with a header row in column order. Missing
// values are written as empty cells. When the table carries a manifest it
// is refreshed and written alongside.
func WriteTable(path string, table *types.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &types.StorageError{Backend: "csv", Path: path, Err: fmt.Errorf("create output dir: %w", err)}
	}

	f, err := os.Create(path)
	if err != nil {
		return &types.StorageError{Backend: "csv", Path: path, Err: err}
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(table.Columns); err != nil {
		return &types.StorageError{Backend: "csv", Path: path, Err: fmt.Errorf("write header: %w", err)}
	}
	for _, row := range table.Rows {
		if err := cw.Write(table.Record(row)); err != nil {
			return &types.StorageError{Backend: "csv", Path: path, Err: fmt.Errorf("write row: %w", err)}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return &types.StorageError{Backend: "csv", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &types.StorageError{Backend: "csv", Path: path, Err: err}
	}

	if table.Manifest != nil {
		table.Manifest.Columns = append([]string(nil), table.Columns...)
		table.Manifest.Rows = table.Len()
		table.Manifest.CreatedAt = time.Now().UTC()
		if err := WriteManifest(path, table.Manifest); err != nil {
			return err
		}
	}
	return nil
}

// ReadTable reads a CSV table whose first row is the header. Empty cells are
// read as missing values. The manifest sidecar is attached when present.
func ReadTable(path string) (*types.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &types.StorageError{Backend: "csv", Path: path, Err: err}
	}
	defer f.Close()

	cr := csv.NewReader(f)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &types.StorageError{Backend: "csv", Path: path, Err: errors.New("empty file: no header row")}
	}
	if err != nil {
		return nil, &types.StorageError{Backend: "csv", Path: path, Err: fmt.Errorf("read header: %w", err)}
	}

	table := types.NewTable(header...)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &types.StorageError{Backend: "csv", Path: path, Err: fmt.Errorf("read row: %w", err)}
		}

		row := types.NewRow()
		for i, col := range header {
			if rec[i] != "" {
				row.Set(col, rec[i])
			}
		}
		table.Append(row)
	}

	m, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	table.Manifest = m
	return table, nil
}
