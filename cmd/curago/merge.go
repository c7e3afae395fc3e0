package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge [version]",
	Short: "Merge a version into the training file",
	Long: `Append a version's records onto the canonical training file. Without
an argument, the current version is merged. The previous training file
is backed up as train.jsonl.bak.<version> first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		p, err := newPipeline(ctx)
		if err != nil {
			return err
		}

		id := ""
		if len(args) == 1 {
			id = args[0]
		}

		path, err := p.MergeToTraining(ctx, id)
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s merged into %s\n", green("✓"), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
