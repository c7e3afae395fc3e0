package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/curago/curago/corpus"
	"github.com/curago/curago/internal/fs"
	"github.com/curago/curago/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <records.jsonl>",
	Short: "Validate a batch without snapshotting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, skipped, err := corpus.ReadFile(fs.Default, args[0], recordCodec())
		if err != nil {
			return fmt.Errorf("read batch: %w", err)
		}

		v := validate.New(cfg.ValidationConfig()).WithCodec(recordCodec())
		result := v.ValidateAll(records, cfg.TrainingDataDir)

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		if result.Passed {
			fmt.Printf("%s %s\n", green("✓"), result.Summary())
		} else {
			fmt.Printf("%s %s\n", red("✗"), result.Summary())
		}
		if skipped > 0 {
			fmt.Printf("  %s %d malformed lines skipped\n", yellow("!"), skipped)
		}
		for _, e := range result.FormatErrors {
			fmt.Printf("  %s %s\n", red("✗"), e)
		}
		for _, w := range result.QualityWarnings {
			fmt.Printf("  %s %s\n", yellow("!"), w)
		}
		for _, n := range result.ComparisonNotes {
			fmt.Printf("  %s %s\n", gray("·"), n)
		}

		if !result.Passed {
			return fmt.Errorf("validation failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
