package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skymessage/skymessage/internal/app"
	"github.com/skymessage/skymessage/internal/config"
)

var fetchPublisher string

var fetchCmd = &cobra.Command{
	Use:   "fetch <slug> <url>",
	Short: "Download a source page and stage it as a raw document",
	Long: `Fetch downloads one URL, extracts the readable article text, and
stages it as a raw document for the given saint. Run 'skymessage ingest
<slug>' afterwards to index the new material.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFetch(cmd.Context(), args[0], args[1])
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchPublisher, "publisher", "", "publisher name for the citation badge")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(ctx context.Context, slug, url string) error {
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

	doc, err := a.Fetcher.Document(ctx, slug, url, fetchPublisher)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}

	if err := a.Catalog.AddRawDocument(ctx, doc); err != nil {
		return fmt.Errorf("staging raw document: %w", err)
	}

	fmt.Printf("Staged %q for %s (%d chars from %s)\n", doc.Name, slug, len(doc.Content), doc.Publisher)
	return nil
}
