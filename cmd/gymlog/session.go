// ABOUTME: CLI commands for browsing and deleting recorded sessions.
// ABOUTME: Supports list with filters, show with sets and rollup, and delete.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/gymlog/internal/analytics"
	"github.com/harperreed/gymlog/internal/models"
	"github.com/spf13/cobra"
)

var (
	sessionTemplate string
	sessionFrom     string
	sessionTo       string
	sessionLimit    int
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"s"},
	Short:   "Browse recorded sessions",
}

// sessionFilterFromFlags builds a filter from the shared --template/--from/--to flags.
func sessionFilterFromFlags(template, from, to string, limit int) (models.SessionFilter, error) {
	filter := models.SessionFilter{Limit: limit}
	var err error
	if filter.From, err = parseOptionalTime("from", from); err != nil {
		return filter, err
	}
	if filter.To, err = parseOptionalTime("to", to); err != nil {
		return filter, err
	}
	if filter.To != nil && models.IsDateOnly(to) {
		end := models.EndOfDay(*filter.To)
		filter.To = &end
	}
	if template != "" {
		filter.TemplateName = &template
	}
	return filter, nil
}

var sessionListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List sessions, newest first",
	Long: `List recorded sessions, newest first.

Examples:
  gymlog session list
  gymlog session list --template "leg day" --from 2024-01-01
  gymlog session list -n 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := sessionFilterFromFlags(sessionTemplate, sessionFrom, sessionTo, sessionLimit)
		if err != nil {
			return err
		}

		sessions, err := repo.ListSessions(cmd.Context(), filter)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, s := range sessions {
			duration := faint.Sprint("in progress")
			if s.DurationMinutes != nil {
				duration = fmt.Sprintf("%d min", *s.DurationMinutes)
			}
			fmt.Fprintf(out, "%s %s %s %s\n",
				faint.Sprint(padRight(fmt.Sprintf("#%d", s.ID), 6)),
				faint.Sprint(s.SessionDate.Format("2006-01-02 15:04")),
				padRight(truncate(s.TemplateName, 24), 24),
				duration)
		}
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a session with its sets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("session", args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		s, err := repo.GetSessionDetail(ctx, id)
		if err != nil {
			return fmt.Errorf("session not found: %w", err)
		}
		volumes, err := repo.ListMuscleVolume(ctx, id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		faint := color.New(color.Faint)
		fmt.Fprintf(out, "%s %s\n", color.New(color.Bold).Sprint(s.TemplateName), faint.Sprintf("#%d", s.ID))
		fmt.Fprintf(out, "  Started: %s\n", s.SessionDate.Format("2006-01-02 15:04"))
		if s.DurationMinutes != nil {
			fmt.Fprintf(out, "  Duration: %d min\n", *s.DurationMinutes)
		}
		volume := analytics.ComputeSessionVolume(s)
		fmt.Fprintf(out, "  Volume: %.0f%s\n", volume.Value, syntheticMark(volume))

		for _, e := range s.Exercises {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  %s %s %s\n", e.ExerciseName,
				faint.Sprintf("#%d", e.ID),
				faint.Sprintf("(%d/%d sets)", len(e.Sets), e.PlannedSets))
			for _, set := range e.Sets {
				metrics := formatBag(set.CustomMetrics)
				if set.RawMetrics != "" {
					metrics = color.YellowString("unreadable: %s", truncate(set.RawMetrics, 40))
				}
				fmt.Fprintf(out, "    %d. %s\n", set.SetIndex, metrics)
			}
		}

		if len(volumes) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "  Muscles:")
			for _, v := range volumes {
				fmt.Fprintf(out, "    %s %d sets\n", padRight(v.MuscleName, 14), v.TotalSets)
			}
		}
		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a session and its sets",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("session", args[0])
		if err != nil {
			return err
		}

		if err := repo.DeleteSession(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ Deleted session #%d", id))
		return nil
	},
}

func init() {
	sessionListCmd.Flags().StringVarP(&sessionTemplate, "template", "t", "", "filter by template name")
	sessionListCmd.Flags().StringVar(&sessionFrom, "from", "", "earliest date (YYYY-MM-DD)")
	sessionListCmd.Flags().StringVar(&sessionTo, "to", "", "latest date (YYYY-MM-DD)")
	sessionListCmd.Flags().IntVarP(&sessionLimit, "limit", "n", 20, "max number of results")

	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
	rootCmd.AddCommand(sessionCmd)
}
