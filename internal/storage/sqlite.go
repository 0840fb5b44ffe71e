package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/IshaanNene/newsetl/internal/types"
)

// SQLiteSink loads cleaned tables into an articles table of a SQLite
// database, keyed by uid.
type SQLiteSink struct {
	db     *sql.DB
	path   string
	count  int
	logger *slog.Logger
}

// NewSQLiteSink opens (creating if needed) the database at path.
func NewSQLiteSink(path string, logger *slog.Logger) (*SQLiteSink, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, &types.StorageError{Backend: SinkSQLite, Path: path, Err: fmt.Errorf("create dir: %w", err)}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &types.StorageError{Backend: SinkSQLite, Path: path, Err: fmt.Errorf("open database: %w", err)}
	}

	s := &SQLiteSink{
		db:     db,
		path:   path,
		logger: logger.With("component", "sqlite_sink"),
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, &types.StorageError{Backend: SinkSQLite, Path: path, Err: fmt.Errorf("initialize schema: %w", err)}
	}
	return s, nil
}

func (s *SQLiteSink) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		uid TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		newspaper_uid TEXT NOT NULL,
		host TEXT NOT NULL,
		n_tokens_title INTEGER NOT NULL,
		n_tokens_body INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteSink) Name() string { return SinkSQLite }

// Load implements Sink. Rows are written in one transaction; a row that
// already exists is replaced.
func (s *SQLiteSink) Load(ctx context.Context, table *types.Table) (int, error) {
	if err := requireKey(SinkSQLite, table); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &types.StorageError{Backend: SinkSQLite, Path: s.path, Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO articles (
			uid, body, title, url, newspaper_uid, host, n_tokens_title, n_tokens_body
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET
			body = excluded.body,
			title = excluded.title,
			url = excluded.url,
			newspaper_uid = excluded.newspaper_uid,
			host = excluded.host,
			n_tokens_title = excluded.n_tokens_title,
			n_tokens_body = excluded.n_tokens_body
	`)
	if err != nil {
		return 0, &types.StorageError{Backend: SinkSQLite, Path: s.path, Err: err}
	}
	defer stmt.Close()

	for _, row := range table.Rows {
		_, err := stmt.ExecContext(ctx,
			row.GetString(types.ColumnUID),
			row.GetString(types.ColumnBody),
			row.GetString(types.ColumnTitle),
			row.GetString(types.ColumnURL),
			row.GetString(types.ColumnNewspaperUID),
			row.GetString(types.ColumnHost),
			atoi(row.GetString(types.ColumnNTokensTitle)),
			atoi(row.GetString(types.ColumnNTokensBody)),
		)
		if err != nil {
			return 0, &types.StorageError{
				Backend: SinkSQLite,
				Path:    s.path,
				Err:     fmt.Errorf("upsert %s: %w", row.GetString(types.ColumnUID), err),
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &types.StorageError{Backend: SinkSQLite, Path: s.path, Err: err}
	}

	s.count += table.Len()
	s.logger.Debug("rows upserted", "count", table.Len(), "total", s.count)
	return table.Len(), nil
}

// Count returns the number of rows currently stored.
func (s *SQLiteSink) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&n); err != nil {
		return 0, &types.StorageError{Backend: SinkSQLite, Path: s.path, Err: err}
	}
	return n, nil
}

func (s *SQLiteSink) Close() error {
	s.logger.Info("sqlite sink closing", "path", s.path, "total_rows", s.count)
	return s.db.Close()
}

// atoi parses a token count; anything unparsable is stored as 0.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
