package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show version history and the current pointer",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== Curago Version History ==="))

		versions := store.ListVersions()
		if len(versions) == 0 {
			fmt.Printf("  %s\n", gray("No versions yet"))
			return nil
		}

		current := store.CurrentVersion()
		for _, info := range versions {
			marker := " "
			line := gray
			if info.Version == current {
				marker = green("●")
				line = green
			}
			fmt.Printf("  %s %s  %d records  %s\n",
				marker, line(info.Version), info.RecordCount,
				info.CreatedAt.Format("2006-01-02 15:04:05"))
			if info.Description != "" {
				fmt.Printf("      %s\n", gray(info.Description))
			}
		}
		fmt.Println()
		return nil
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff <version-a> <version-b>",
	Short: "Compare two versions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		diff, err := store.DiffVersions(args[0], args[1])
		if err != nil {
			return err
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan(fmt.Sprintf("=== %s → %s ===", diff.VersionA, diff.VersionB)))
		fmt.Printf("  Records: %d → %d (%+d)\n", diff.RecordsA, diff.RecordsB, diff.Delta)
		for _, s := range diff.NewSources {
			fmt.Printf("  %s %s\n", green("+"), s)
		}
		for _, s := range diff.RemovedSources {
			fmt.Printf("  %s %s\n", red("-"), s)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(diffCmd)
}
