// ABOUTME: CLI command that deletes all workout data.
// ABOUTME: Asks for confirmation unless --yes is given.
package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var resetSkipConfirm bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all templates, sessions, and sets",
	Long: `Delete every template, session, set, and rollup, and return to the idle
state. The schema and migration history are kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if !resetSkipConfirm {
			fmt.Fprintf(out, "Delete all workout data in %s? [y/N] ", repo.Path())
			reader := bufio.NewReader(cmd.InOrStdin())
			response, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				fmt.Fprintln(out, "Reset canceled.")
				return nil
			}
		}

		if err := repo.DeleteAllData(cmd.Context()); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}

		fmt.Fprintln(out, color.GreenString("✓ All workout data deleted"))
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetSkipConfirm, "yes", "y", false, "skip confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}
