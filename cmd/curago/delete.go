package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <version>",
	Short: "Delete a version permanently",
	Long: `Remove a version's files and manifest entry. The current version
cannot be deleted; roll back to another version first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		p, err := newPipeline(ctx)
		if err != nil {
			return err
		}

		if err := p.DeleteVersion(ctx, args[0]); err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s deleted %s\n", green("✓"), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
