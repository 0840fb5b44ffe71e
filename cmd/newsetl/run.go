package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/newsetl/internal/config"
	"github.com/IshaanNene/newsetl/internal/fetcher"
	"github.com/IshaanNene/newsetl/internal/pipeline"
	"github.com/IshaanNene/newsetl/internal/storage"
)

func runCmd() *cobra.Command {
	var skipLoad bool

	cmd := &cobra.Command{
		Use:   "run [site...]",
		Short: "Extract, transform and load one or more sites",
		Long: `Run the full ETL for each named site, or every configured site when none is
given. Each site's extract and clean tables are written to the output
directory before loading. A failing site is reported and the remaining sites
still run.`,
		Example: `  newsetl run
  newsetl run eluniversal elpais --skip-load`,
		Args: configuredSites,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			sites := args
			if len(sites) == 0 {
				sites = cfg.SiteIDs()
			}
			if len(sites) == 0 {
				return errors.New("no news sites configured")
			}
			for _, id := range sites {
				if _, err := cfg.Site(id); err != nil {
					return err
				}
			}

			f, err := fetcher.New(&cfg.Fetcher, logger)
			if err != nil {
				return fmt.Errorf("create fetcher: %w", err)
			}
			defer f.Close()

			p, err := newPipeline(cfg, logger)
			if err != nil {
				return err
			}

			var sink storage.Sink
			if !skipLoad {
				sink, err = storage.NewSink(cmd.Context(), &cfg.Load, logger)
				if err != nil {
					return fmt.Errorf("open %s sink: %w", cfg.Load.Type, err)
				}
				defer sink.Close()
			}

			var failed []string
			for _, id := range sites {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				if err := runSite(cmd.Context(), cfg, f, p, sink, id, logger); err != nil {
					logger.Error("site failed", "site", id, "error", err)
					color.Red("✗ %s: %v\n", id, err)
					failed = append(failed, id)
				}
			}

			if len(failed) > 0 {
				return fmt.Errorf("%d of %d sites failed: %v", len(failed), len(sites), failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipLoad, "skip-load", false, "stop after writing the clean table")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	return cmd
}

// runSite passes one site through every stage. Tables flow between stages
// in memory; the files written along the way are artifacts.
func runSite(ctx context.Context, cfg *config.Config, f fetcher.Fetcher, p *pipeline.Pipeline, sink storage.Sink, siteID string, logger *slog.Logger) error {
	logger = logger.With("site", siteID)

	res, table, path, err := extractSite(ctx, cfg, f, siteID, logger)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	printExtractSummary(res, path)

	cleaned, err := p.Transform(ctx, table)
	if err != nil {
		return fmt.Errorf("transform: %w", err)
	}
	out := filepath.Join(cfg.Storage.OutputDir, pipeline.CleanPrefix+filepath.Base(path))
	if err := storage.WriteTable(out, cleaned); err != nil {
		return fmt.Errorf("transform: %w", err)
	}
	color.Green("✓ %s: %d of %d rows kept -> %s\n", siteID, cleaned.Len(), table.Len(), out)

	if sink == nil {
		return nil
	}
	n, err := sink.Load(ctx, cleaned)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	color.Green("✓ %s: %d rows loaded into %s\n", siteID, n, sink.Name())
	return nil
}
