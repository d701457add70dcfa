// ABOUTME: CLI commands for the workout lifecycle.
// ABOUTME: Covers start, set, unset, finish, abandon, and state.
package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/gymlog/internal/analytics"
	"github.com/harperreed/gymlog/internal/models"
	"github.com/harperreed/gymlog/internal/tracker"
	"github.com/spf13/cobra"
)

var (
	startAt         string
	finishAt        string
	finishSessionID int64
)

var startCmd = &cobra.Command{
	Use:   "start <template-id>",
	Short: "Start a workout from a template",
	Long: `Start a workout. The template's exercises are copied into the new session
and the app switches to the exercising state.

Examples:
  gymlog start 1
  gymlog start 1 --at "2024-06-01 09:00"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		templateID, err := parseID("template", args[0])
		if err != nil {
			return err
		}

		var date time.Time
		if startAt != "" {
			if date, err = parseTime(startAt); err != nil {
				return fmt.Errorf("invalid timestamp: %s", startAt)
			}
		}

		session, err := newTracker().Start(cmd.Context(), templateID, date)
		if err != nil {
			return fmt.Errorf("failed to start workout: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, color.GreenString("✓ Started %s", session.TemplateName))
		printSessionExercises(cmd, session)
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <session-exercise-id> <set-index> <metric=value>...",
	Short: "Record a set",
	Long: `Record one set of a session exercise. Set indexes start at 1; recording
an index again overwrites the earlier values.

Examples:
  gymlog set 3 1 weight=100 reps=5
  gymlog set 4 2 time=60`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		seID, err := parseID("session exercise", args[0])
		if err != nil {
			return err
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid set index: %s", args[1])
		}
		bag, err := parseMetricArgs(args[2:])
		if err != nil {
			return err
		}

		set, err := repo.RecordSet(cmd.Context(), seID, index, bag)
		if err != nil {
			return fmt.Errorf("failed to record set: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ Set %d: %s", set.SetIndex, formatBag(set.CustomMetrics)))
		return nil
	},
}

var unsetCmd = &cobra.Command{
	Use:   "unset <session-exercise-id> <set-index>",
	Short: "Delete a recorded set",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		seID, err := parseID("session exercise", args[0])
		if err != nil {
			return err
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid set index: %s", args[1])
		}

		if err := repo.DeleteSet(cmd.Context(), seID, index); err != nil {
			return fmt.Errorf("failed to delete set: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ Deleted set %d", index))
		return nil
	},
}

var finishCmd = &cobra.Command{
	Use:   "finish",
	Short: "Finish the active workout",
	Long: `Finish the active workout. Records the end time and duration, rebuilds the
per-muscle volume rollup, and returns to the idle state.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		tr := newTracker()

		var endedAt time.Time
		if finishAt != "" {
			var err error
			if endedAt, err = parseTime(finishAt); err != nil {
				return fmt.Errorf("invalid timestamp: %s", finishAt)
			}
		}

		sessionID := finishSessionID
		if sessionID == 0 {
			active, err := tr.ActiveSession(ctx)
			if err != nil {
				return fmt.Errorf("no active workout: %w", err)
			}
			sessionID = active.ID
		}

		session, err := tr.Stop(ctx, sessionID, endedAt)
		if err != nil {
			return fmt.Errorf("failed to finish workout: %w", err)
		}

		out := cmd.OutOrStdout()
		volume := analytics.ComputeSessionVolume(session)
		fmt.Fprintln(out, color.GreenString("✓ Finished %s", session.TemplateName))
		if session.DurationMinutes != nil {
			fmt.Fprintf(out, "  Duration: %d min\n", *session.DurationMinutes)
		}
		fmt.Fprintf(out, "  Sets: %d  Volume: %.0f%s\n", session.SetCount(), volume.Value, syntheticMark(volume))
		return nil
	},
}

var abandonCmd = &cobra.Command{
	Use:   "abandon",
	Short: "Return to idle without finishing the workout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newTracker().Abandon(cmd.Context()); err != nil {
			return fmt.Errorf("failed to abandon workout: %w", err)
		}
		color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "Workout abandoned. The session stays unfinished.")
		return nil
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show whether a workout is in progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		tr := newTracker()

		st, err := tr.Current(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if st.Status == tracker.Idle {
			fmt.Fprintln(out, "Idle")
			return nil
		}

		fmt.Fprintln(out, color.GreenString("Exercising"))
		active, err := tr.ActiveSession(ctx)
		if err != nil {
			return nil
		}
		detail, err := repo.GetSessionDetail(ctx, active.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s since %s\n", detail.TemplateName, detail.SessionDate.Format("15:04"))
		printSessionExercises(cmd, detail)
		return nil
	},
}

// printSessionExercises lists exercise ids with recorded/planned set counts.
func printSessionExercises(cmd *cobra.Command, session *models.Session) {
	out := cmd.OutOrStdout()
	faint := color.New(color.Faint)
	for _, e := range session.Exercises {
		fmt.Fprintf(out, "  %s %s %d/%d sets\n",
			faint.Sprint(padRight(fmt.Sprintf("#%d", e.ID), 6)),
			padRight(e.ExerciseName, 20),
			len(e.Sets), e.PlannedSets)
	}
}

func syntheticMark(v analytics.Volume) string {
	if !v.Synthetic {
		return ""
	}
	return color.New(color.Faint).Sprintf(" (%s estimate)", v.Source)
}

func init() {
	startCmd.Flags().StringVar(&startAt, "at", "", "start time (YYYY-MM-DD HH:MM)")
	finishCmd.Flags().StringVar(&finishAt, "at", "", "end time (YYYY-MM-DD HH:MM)")
	finishCmd.Flags().Int64Var(&finishSessionID, "session", 0, "session to finish (default: the active one)")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(unsetCmd)
	rootCmd.AddCommand(finishCmd)
	rootCmd.AddCommand(abandonCmd)
	rootCmd.AddCommand(stateCmd)
}
