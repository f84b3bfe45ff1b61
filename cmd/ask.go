package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skymessage/skymessage/internal/app"
	"github.com/skymessage/skymessage/internal/ask"
	"github.com/skymessage/skymessage/internal/config"
)

var (
	askSaint    string
	askStyle    string
	askAudience string
)

var askCmd = &cobra.Command{
	Use:   "ask \"<question>\"",
	Short: "Ask a question and print the persona answer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd.Context(), args[0])
	},
}

func init() {
	askCmd.Flags().StringVar(&askSaint, "saint", "", "restrict retrieval to one saint slug")
	askCmd.Flags().StringVar(&askStyle, "style", "saint", "answer style: saint, emoji-story, or plain")
	askCmd.Flags().StringVar(&askAudience, "audience", "adult", "audience register: kids or adult")
	rootCmd.AddCommand(askCmd)
}

func runAsk(ctx context.Context, question string) error {
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

	resp, err := a.Ask.Run(ctx, ask.Request{
		Query:     question,
		SaintSlug: askSaint,
		Style:     ask.Style(askStyle),
		Audience:  ask.Audience(askAudience),
	})
	if err != nil {
		return fmt.Errorf("asking: %w", err)
	}

	fmt.Printf("%s:\n\n%s\n", resp.Saint, resp.Text)
	if len(resp.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range resp.Sources {
			publisher := src.Publisher
			if publisher == "" {
				publisher = "Unknown"
			}
			fmt.Printf("  - %s %s\n", publisher, src.URL)
		}
	}
	return nil
}
