package main

import (
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/newsetl/internal/config"
	"github.com/IshaanNene/newsetl/internal/lang"
	"github.com/IshaanNene/newsetl/internal/pipeline"
)

func transformCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transform <file>...",
		Short: "Clean extracted article tables",
		Long: `Read each extract table, derive uid, host and token counts, recover missing
titles from the URL, drop duplicates and incomplete rows, and write
clean_<name> into the output directory.`,
		Example: `  newsetl transform data/eluniversal_2024-03-09_articles.csv`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			p, err := newPipeline(cfg, logger)
			if err != nil {
				return err
			}

			for _, in := range args {
				cleaned, out, err := p.TransformFile(cmd.Context(), in, cfg.Storage.OutputDir)
				if err != nil {
					return fmt.Errorf("transform %s: %w", in, err)
				}
				color.Green("✓ %s: %d rows -> %s\n", in, cleaned.Len(), out)
			}
			return nil
		},
	}
}

func newPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, error) {
	res, err := lang.Load(cfg.Transform.Language)
	if err != nil {
		return nil, fmt.Errorf("load language resources: %w", err)
	}
	return pipeline.New(res, logger), nil
}
