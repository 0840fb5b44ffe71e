// Package storage persists tables: the CSV files that pass between the
// extract and transform stages, their manifest sidecars, and the sinks that
// cleaned tables are loaded into.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/newsetl/internal/config"
	"github.com/IshaanNene/newsetl/internal/types"
)

// Sink is the interface for all load destinations.
type Sink interface {
	// Load upserts every row of a cleaned table keyed by uid and returns the
	// number of rows written.
	Load(ctx context.Context, table *types.Table) (int, error)

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the sink identifier.
	Name() string
}

// Sink types accepted in configuration.
const (
	SinkSQLite  = "sqlite"
	SinkMongoDB = "mongodb"
)

// NewSink creates the sink selected by cfg.
func NewSink(ctx context.Context, cfg *config.LoadConfig, logger *slog.Logger) (Sink, error) {
	switch cfg.Type {
	case SinkSQLite:
		return NewSQLiteSink(cfg.DSN, logger)
	case SinkMongoDB:
		return NewMongoSink(ctx, cfg.DSN, cfg.Database, cfg.Collection, logger)
	default:
		return nil, fmt.Errorf("unsupported load type: %s", cfg.Type)
	}
}

// requireKey checks that table can be loaded: it must carry a uid column.
func requireKey(backend string, table *types.Table) error {
	if !table.HasColumn(types.ColumnUID) {
		return &types.StorageError{
			Backend: backend,
			Err:     fmt.Errorf("%w: %s", types.ErrMissingColumn, types.ColumnUID),
		}
	}
	return nil
}
