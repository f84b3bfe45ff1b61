package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skymessage/skymessage/internal/app"
	"github.com/skymessage/skymessage/internal/config"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <slug>",
	Short: "Re-chunk, re-embed, and re-index one saint's raw documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(ctx context.Context, slug string) error {
	initLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	a, err := app.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	result, err := a.Ingest.Run(ctx, slug)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", slug, err)
	}

	fmt.Printf("Ingested %s: %d chunks upserted\n", result.SaintSlug, result.Upserted)
	return nil
}
