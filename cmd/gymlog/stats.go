// ABOUTME: CLI commands for training analytics.
// ABOUTME: Weekly volume, progressive overload, completion rate, top exercises, and summary.
package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/gymlog/internal/analytics"
	"github.com/spf13/cobra"
)

var (
	statsWeeks    int
	statsPoints   int
	statsTop      int
	statsTemplate string
	statsFrom     string
	statsTo       string
)

const barWidth = 30

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Training analytics",
	Long: `Chart-ready views over recorded sessions.

Volume is the sum of weight x reps. Sessions without any load fall back to
their duration, then to a fixed placeholder; those values are marked as
estimates.`,
}

func analyzer() *analytics.Analyzer {
	return analytics.NewAnalyzer(repo)
}

func bar(value, peak float64) string {
	if peak <= 0 || value <= 0 {
		return ""
	}
	n := int(math.Round(value / peak * barWidth))
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

var statsWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Volume per ISO week, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		weeks := cfg.GetWeekCount()
		if cmd.Flags().Changed("weeks") {
			weeks = statsWeeks
		}

		buckets, err := analyzer().WeeklyVolume(cmd.Context(), weeks)
		if err != nil {
			return fmt.Errorf("failed to compute weekly volume: %w", err)
		}

		peak := 0.0
		for _, b := range buckets {
			peak = math.Max(peak, b.Volume)
		}

		out := cmd.OutOrStdout()
		faint := color.New(color.Faint)
		for _, b := range buckets {
			note := ""
			if b.SyntheticVolume > 0 {
				note = faint.Sprintf(" (%.0f estimated)", b.SyntheticVolume)
			}
			fmt.Fprintf(out, "%s %s %8.0f %s%s\n",
				padRight(b.Label, 4),
				faint.Sprint(b.Start.Format("Jan 02")),
				b.Volume,
				color.CyanString(bar(b.Volume, peak)),
				note)
		}
		return nil
	},
}

var statsOverloadCmd = &cobra.Command{
	Use:   "overload <exercise>",
	Short: "Average load per session for one exercise",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		points := cfg.GetOverloadPoints()
		if cmd.Flags().Changed("points") {
			points = statsPoints
		}

		series, err := analyzer().ProgressiveOverload(cmd.Context(), args[0], points)
		if err != nil {
			return fmt.Errorf("failed to compute overload series: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(series) == 0 {
			fmt.Fprintf(out, "No sets recorded for %s.\n", args[0])
			return nil
		}

		faint := color.New(color.Faint)
		for _, p := range series {
			if p.Padded {
				fmt.Fprintf(out, "%s %s\n", padRight("", 10), faint.Sprint("(no newer sessions)"))
				continue
			}
			fmt.Fprintf(out, "%s %7.1f x %4.1f  %s\n",
				faint.Sprint(p.Date.Format("2006-01-02")),
				p.AvgWeight, p.AvgReps,
				faint.Sprintf("%d sets", p.Sets))
		}
		return nil
	},
}

var statsCompletionCmd = &cobra.Command{
	Use:   "completion",
	Short: "Share of exercises whose recorded sets met the plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := sessionFilterFromFlags(statsTemplate, statsFrom, statsTo, 0)
		if err != nil {
			return err
		}

		c, err := analyzer().CompletionRate(cmd.Context(), filter)
		if err != nil {
			return fmt.Errorf("failed to compute completion rate: %w", err)
		}

		out := cmd.OutOrStdout()
		if c.Total == 0 {
			fmt.Fprintln(out, "No planned exercises found.")
			return nil
		}
		fmt.Fprintf(out, "%.0f%% complete (%d of %d exercises)\n", c.Percent, c.Completed, c.Total)
		return nil
	},
}

var statsTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Most frequently performed exercises",
	RunE: func(cmd *cobra.Command, args []string) error {
		top, err := analyzer().TopExercises(cmd.Context(), statsTop)
		if err != nil {
			return fmt.Errorf("failed to rank exercises: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(top) == 0 {
			fmt.Fprintln(out, "No exercises recorded.")
			return nil
		}
		for i, e := range top {
			fmt.Fprintf(out, "%2d. %s %d\n", i+1, padRight(e.Name, 20), e.Count)
		}
		return nil
	},
}

var statsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Overview of recent training",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := analyzer().Summary(cmd.Context(), cfg.GetWeekCount(), 3)
		if err != nil {
			return fmt.Errorf("failed to build summary: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Sessions:   %d\n", s.TotalSessions)
		fmt.Fprintf(out, "Volume:     %.0f\n", s.TotalVolume)
		if s.SyntheticSessions > 0 {
			fmt.Fprintf(out, "Estimated:  %d sessions\n", s.SyntheticSessions)
		}
		if s.LastSession != nil {
			fmt.Fprintf(out, "Last:       %s\n", s.LastSession.Format("2006-01-02"))
		}
		fmt.Fprintf(out, "Completion: %.0f%%\n", s.Completion.Percent)
		if len(s.TopExercises) > 0 {
			names := make([]string, 0, len(s.TopExercises))
			for _, e := range s.TopExercises {
				names = append(names, e.Name)
			}
			fmt.Fprintf(out, "Top:        %s\n", strings.Join(names, ", "))
		}
		return nil
	},
}

func init() {
	statsWeeklyCmd.Flags().IntVarP(&statsWeeks, "weeks", "w", 8, "number of weeks")
	statsOverloadCmd.Flags().IntVarP(&statsPoints, "points", "p", 8, "series width")
	statsTopCmd.Flags().IntVarP(&statsTop, "limit", "n", 5, "max number of exercises")
	statsCompletionCmd.Flags().StringVarP(&statsTemplate, "template", "t", "", "filter by template name")
	statsCompletionCmd.Flags().StringVar(&statsFrom, "from", "", "earliest date (YYYY-MM-DD)")
	statsCompletionCmd.Flags().StringVar(&statsTo, "to", "", "latest date (YYYY-MM-DD)")

	statsCmd.AddCommand(statsWeeklyCmd)
	statsCmd.AddCommand(statsOverloadCmd)
	statsCmd.AddCommand(statsCompletionCmd)
	statsCmd.AddCommand(statsTopCmd)
	statsCmd.AddCommand(statsSummaryCmd)
	rootCmd.AddCommand(statsCmd)
}
