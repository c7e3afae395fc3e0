package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/curago/curago/corpus"
	"github.com/curago/curago/internal/fs"
)

var runDescription string

var runCmd = &cobra.Command{
	Use:   "run <records.jsonl>",
	Short: "Process a batch through the full pipeline",
	Long: `Read a JSONL batch of chat-format records and walk it through quality
filtering, deduplication and validation, then snapshot the survivors as
a new version. With auto_merge enabled in the config, a passing batch is
also merged into the training file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		p, err := newPipeline(ctx)
		if err != nil {
			return err
		}

		records, skipped, err := corpus.ReadFile(fs.Default, args[0], recordCodec())
		if err != nil {
			return fmt.Errorf("read batch: %w", err)
		}
		if skipped > 0 {
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Printf("%s %d malformed lines skipped\n", yellow("!"), skipped)
		}

		result, err := p.Run(ctx, records, runDescription)
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("%s %s\n", green("✓"), result.Summary())
		fmt.Printf("  %s %d rejected by quality filter\n", gray("·"), result.Quality.RejectedTotal())
		fmt.Printf("  %s %d exact duplicates, %d near duplicates\n",
			gray("·"), result.Dedup.Exact, result.Dedup.Near)
		if result.Validation != nil {
			fmt.Printf("  %s %s\n", gray("·"), result.Validation.Summary())
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runDescription, "description", "d", "", "snapshot description")
	rootCmd.AddCommand(runCmd)
}
