package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <version>",
	Short: "Move the current pointer to an earlier version",
	Long: `Make an earlier version current. Rollback is non-destructive: later
versions stay on disk and can be rolled forward to again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		p, err := newPipeline(ctx)
		if err != nil {
			return err
		}

		records, err := p.Rollback(ctx, args[0])
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s rolled back to %s (%d records)\n", green("✓"), args[0], len(records))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rollbackCmd)
}
