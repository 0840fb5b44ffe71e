package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/newsetl/internal/config"
	"github.com/IshaanNene/newsetl/internal/engine"
	"github.com/IshaanNene/newsetl/internal/fetcher"
	"github.com/IshaanNene/newsetl/internal/storage"
	"github.com/IshaanNene/newsetl/internal/types"
)

var noProgress bool

func extractCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "extract <site>",
		Short: "Scrape a site's homepage and articles into a table",
		Long: `Fetch the configured homepage of <site>, collect its article links, fetch
every article and extract its title and body. Articles without a body are
skipped. The result is written to {site}_{date}_articles.csv in the output
directory, alongside a manifest.`,
		Example: `  newsetl extract eluniversal
  newsetl extract elpais --concurrency 8 -o ./out`,
		Args: cobra.MatchAll(cobra.ExactArgs(1), configuredSites),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			cfg, err := config.Load(cfgFile)
			if err != nil || len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return cfg.SiteIDs(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			if concurrency > 0 {
				cfg.Engine.Concurrency = concurrency
			}
			if _, err := cfg.Site(args[0]); err != nil {
				return err
			}

			f, err := fetcher.New(&cfg.Fetcher, logger)
			if err != nil {
				return fmt.Errorf("create fetcher: %w", err)
			}
			defer f.Close()

			res, _, path, err := extractSite(cmd.Context(), cfg, f, args[0], logger)
			if err != nil {
				return err
			}
			printExtractSummary(res, path)
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "concurrent article fetches (overrides engine.concurrency)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	return cmd
}

// configuredSites rejects positional arguments that do not name a configured
// news site.
func configuredSites(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	for _, id := range args {
		if _, err := cfg.Site(id); errors.Is(err, types.ErrUnknownSite) {
			return fmt.Errorf("invalid site %q for %q (configured: %s)",
				id, cmd.CommandPath(), strings.Join(cfg.SiteIDs(), ", "))
		}
	}
	return nil
}

// extractSite runs the engine for one site and writes its articles table.
func extractSite(ctx context.Context, cfg *config.Config, f fetcher.Fetcher, siteID string, logger *slog.Logger) (*engine.Result, *types.Table, string, error) {
	eng := engine.New(cfg, f, logger)

	var bar *progressbar.ProgressBar
	if !noProgress && !verbose {
		bar = getProgressBar(-1, fmt.Sprintf("Fetching %s articles", siteID))
		eng.OnProgress = func(done, total int) {
			bar.ChangeMax(total)
			bar.Set(done)
		}
	}

	runDate := time.Now()
	res, err := eng.Run(ctx, siteID)
	if bar != nil {
		bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return nil, nil, "", err
	}

	w := storage.NewDatasetWriter(cfg.Storage.OutputDir, cfg.Storage.Extension, logger)
	table, path, err := w.Write(res.Site.ID, runDate, res.Records)
	if err != nil {
		return nil, nil, "", err
	}
	return res, table, path, nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("articles"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func printExtractSummary(res *engine.Result, path string) {
	s := res.Stats
	color.Green("✓ %s: %d articles extracted in %s\n",
		res.Site.ID, s.RecordsKept.Load(), s.EndTime.Sub(s.StartTime).Round(time.Millisecond))
	fmt.Printf("  Links found:     %d\n", s.LinksFound.Load())
	fmt.Printf("  Duplicate links: %d\n", s.DuplicateLinks.Load())
	fmt.Printf("  Fetch failures:  %d\n", s.FetchFailed.Load())
	fmt.Printf("  Empty bodies:    %d\n", s.EmptyBody.Load())
	fmt.Printf("  Output:          %s\n", path)
}
