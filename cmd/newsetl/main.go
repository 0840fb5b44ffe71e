package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/newsetl/internal/config"
)

var (
	cfgFile   string
	verbose   bool
	outputDir string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "newsetl",
		Short: "newsetl: news extract, transform and load",
		Long: `newsetl scrapes news-site homepages for article links, extracts the title
and body of every article with per-site selectors, and cleans the result into
a deduplicated, feature-annotated dataset.

Stages:
  extract    homepage + articles -> {site}_{date}_articles.csv
  transform  articles.csv -> clean_{site}_{date}_articles.csv
  load       clean table -> sqlite or mongodb
  run        all three, in process, for one or more sites`,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output directory (overrides storage.output_dir)")

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(transformCmd())
	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(sitesCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// setup loads and validates the configuration and builds the logger the
// rest of the command uses.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if outputDir != "" {
		cfg.Storage.OutputDir = outputDir
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, setupLogger(&cfg.Logging), nil
}

// setupLogger creates a structured logger.
func setupLogger(cfg *config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("newsetl %s\n", config.Version)
		},
	}
}

// sitesCmd lists the configured news sites.
func sitesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List configured news sites",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			for _, id := range cfg.SiteIDs() {
				site := cfg.NewsSites[id]
				site.ID = id
				status := "ok"
				if err := config.ValidateSite(site); err != nil {
					status = err.Error()
				}
				fmt.Printf("%-16s %-40s %s\n", id, site.URL, status)
			}
			return nil
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			fmt.Printf("Sites:               %s\n", strings.Join(cfg.SiteIDs(), ", "))
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Request Timeout:   %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  Max Retries:       %d\n", cfg.Fetcher.MaxRetries)
			fmt.Printf("  Retry Delay:       %s\n", cfg.Fetcher.RetryDelay)
			fmt.Printf("  Follow Redirects:  %v\n", cfg.Fetcher.FollowRedirects)
			fmt.Printf("  Max Body Size:     %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("  User Agents:       %d configured\n", len(cfg.Fetcher.UserAgents))
			fmt.Printf("\nEngine:\n")
			fmt.Printf("  Concurrency:       %d\n", cfg.Engine.Concurrency)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Output Dir:        %s\n", cfg.Storage.OutputDir)
			fmt.Printf("  Extension:         %s\n", cfg.Storage.Extension)
			fmt.Printf("\nTransform:\n")
			fmt.Printf("  Language:          %s\n", cfg.Transform.Language)
			fmt.Printf("\nLoad:\n")
			fmt.Printf("  Type:              %s\n", cfg.Load.Type)
			fmt.Printf("  DSN:               %s\n", cfg.Load.DSN)
			return nil
		},
	}
}
