package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/newsetl/internal/storage"
)

func loadCmd() *cobra.Command {
	var sinkType string

	cmd := &cobra.Command{
		Use:   "load <file>...",
		Short: "Load cleaned tables into the configured database",
		Long: `Upsert every row of each cleaned table into the load destination, keyed by
uid. Loading the same table twice leaves the destination unchanged.`,
		Example: `  newsetl load data/clean_eluniversal_2024-03-09_articles.csv
  newsetl load --type mongodb data/clean_*.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			if sinkType != "" {
				cfg.Load.Type = sinkType
			}

			sink, err := storage.NewSink(cmd.Context(), &cfg.Load, logger)
			if err != nil {
				return fmt.Errorf("open %s sink: %w", cfg.Load.Type, err)
			}
			defer sink.Close()

			for _, in := range args {
				table, err := storage.ReadTable(in)
				if err != nil {
					return err
				}
				n, err := sink.Load(cmd.Context(), table)
				if err != nil {
					return fmt.Errorf("load %s: %w", in, err)
				}
				color.Green("✓ %s: %d rows loaded into %s\n", in, n, sink.Name())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sinkType, "type", "", "destination type: sqlite or mongodb (overrides load.type)")
	return cmd
}
