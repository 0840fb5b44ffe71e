package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/IshaanNene/newsetl/internal/storage"
	"github.com/IshaanNene/newsetl/internal/types"
)

// CleanPrefix is prepended to the input file name to name the output.
const CleanPrefix = "clean_"

// NewspaperUIDFromPath derives a site identifier from an extract file name:
// the part of the base name before the first underscore.
func NewspaperUIDFromPath(path string) string {
	uid, _, _ := strings.Cut(filepath.Base(path), "_")
	return uid
}

// Transform cleans an extracted table. The input must follow the article
// schema and carry a manifest naming its site.
func (p *Pipeline) Transform(ctx context.Context, table *types.Table) (*types.Table, error) {
	for _, col := range types.ArticleSchema.Columns {
		if !table.HasColumn(col) {
			return nil, &types.PipelineError{
				Stage: "read",
				Err:   fmt.Errorf("%w: %s", types.ErrMissingColumn, col),
			}
		}
	}

	cleaned, err := p.Run(ctx, table)
	if err != nil {
		return nil, err
	}

	m := types.Manifest{}
	if table.Manifest != nil {
		m = *table.Manifest
	}
	if m.RunID == "" {
		m.RunID = uuid.NewString()
	}
	m.Stage = types.StageTransform
	m.Schema = types.CleanSchema.Name
	m.SchemaVersion = types.CleanSchema.Version
	cleaned.Manifest = &m

	return cleaned, nil
}

// TransformFile reads the extract table at in, cleans it, and writes
// clean_<name> into outDir. The site identifier comes from the table's
// manifest or, for tables without one, from the file name.
func (p *Pipeline) TransformFile(ctx context.Context, in, outDir string) (*types.Table, string, error) {
	logger := p.logger.With("file", in)
	logger.Info("reading table")

	table, err := storage.ReadTable(in)
	if err != nil {
		return nil, "", err
	}

	if table.Manifest == nil {
		table.Manifest = &types.Manifest{}
	}
	if table.Manifest.NewspaperUID == "" {
		table.Manifest.NewspaperUID = NewspaperUIDFromPath(in)
		logger.Info("newspaper uid taken from file name", "newspaper_uid", table.Manifest.NewspaperUID)
	}

	cleaned, err := p.Transform(ctx, table)
	if err != nil {
		return nil, "", err
	}

	out := filepath.Join(outDir, CleanPrefix+filepath.Base(in))
	if err := storage.WriteTable(out, cleaned); err != nil {
		return nil, "", err
	}

	logger.Info("clean table written",
		"path", out,
		"rows_in", table.Len(),
		"rows_out", cleaned.Len(),
	)
	return cleaned, out, nil
}
