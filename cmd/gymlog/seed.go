// ABOUTME: CLI command that fills the database with demo history.
// ABOUTME: Uses the deterministic gofakeit-based generator.
package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/gymlog/internal/seed"
	"github.com/spf13/cobra"
)

var (
	seedValue    int64
	seedWeeks    int
	seedPerWeek  int
	seedSkipRate float64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate demo workout history",
	Long: `Generate Push, Pull, and Leg templates plus finished sessions with
progressively heavier sets. The same --seed always produces the same data.

EXAMPLES:

  gymlog seed
  gymlog seed --weeks 12 --per-week 4 --skip-rate 0.1`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := userID()
		if err != nil {
			return err
		}

		res, err := seed.Generate(cmd.Context(), repo, seed.Options{
			Seed:            seedValue,
			UserID:          uid,
			Weeks:           seedWeeks,
			SessionsPerWeek: seedPerWeek,
			SkipRate:        seedSkipRate,
			Now:             time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("seed failed: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ Seeded %d templates, %d sessions, %d sets",
			res.Templates, res.Sessions, res.Sets))
		return nil
	},
}

func init() {
	seedCmd.Flags().Int64Var(&seedValue, "seed", 1, "random seed")
	seedCmd.Flags().IntVar(&seedWeeks, "weeks", 8, "weeks of history")
	seedCmd.Flags().IntVar(&seedPerWeek, "per-week", 3, "sessions per week")
	seedCmd.Flags().Float64Var(&seedSkipRate, "skip-rate", 0, "chance a planned set is skipped (0-1)")
	rootCmd.AddCommand(seedCmd)
}
