// Package pipeline cleans extracted article tables. A Pipeline is a fixed,
// ordered list of stages; every stage receives its own copy of the table and
// returns the next version, so no stage observes another's partial work.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/IshaanNene/newsetl/internal/lang"
	"github.com/IshaanNene/newsetl/internal/types"
)

// Stage is one table-to-table step of the transform.
type Stage interface {
	// Name returns the stage's identifier.
	Name() string

	// Apply transforms table and returns the result. The table passed in is
	// owned by the stage and may be modified in place.
	Apply(ctx context.Context, table *types.Table) (*types.Table, error)
}

// Pipeline chains stages together.
type Pipeline struct {
	stages []Stage
	logger *slog.Logger
}

// New creates the article cleaning pipeline. Stage order is significant:
// later stages read columns added by earlier ones.
func New(res *lang.Resources, logger *slog.Logger) *Pipeline {
	p := &Pipeline{
		logger: logger.With("component", "pipeline"),
	}

	p.Use(&NewspaperUIDStage{})
	p.Use(&HostStage{})
	p.Use(&MissingTitleStage{})
	p.Use(&UIDStage{})
	p.Use(&StripNewlinesStage{Column: types.ColumnBody})
	p.Use(&TokenCountStage{Column: types.ColumnTitle, Target: types.ColumnNTokensTitle, Resources: res})
	p.Use(&TokenCountStage{Column: types.ColumnBody, Target: types.ColumnNTokensBody, Resources: res})
	p.Use(&DedupStage{Column: types.ColumnTitle})
	p.Use(&DedupStage{Column: types.ColumnUID})
	p.Use(&DropIncompleteStage{Logger: p.logger})
	p.Use(&SelectColumnsStage{Schema: types.CleanSchema})

	return p
}

// Use adds a stage to the end of the pipeline.
func (p *Pipeline) Use(s Stage) {
	p.stages = append(p.stages, s)
	p.logger.Debug("stage added", "name", s.Name(), "position", len(p.stages))
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Run passes table through every stage in order. The input table is never
// modified.
func (p *Pipeline) Run(ctx context.Context, table *types.Table) (*types.Table, error) {
	current := table
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, &types.PipelineError{Stage: s.Name(), Err: err}
		}

		before := current.Len()
		next, err := s.Apply(ctx, current.Clone())
		if err != nil {
			return nil, &types.PipelineError{Stage: s.Name(), Err: err}
		}

		p.logger.Debug("stage applied", "stage", s.Name(), "rows_in", before, "rows_out", next.Len())
		current = next
	}
	return current, nil
}
