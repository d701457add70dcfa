// ABOUTME: CLI commands for managing workout templates.
// ABOUTME: Supports add, list, show, rename, and delete subcommands.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/gymlog/internal/models"
	"github.com/spf13/cobra"
)

var templateExercises []string

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"t", "tmpl"},
	Short:   "Manage workout templates",
	Long: `Templates are reusable workout plans.

EXERCISE FORMAT:

  name[:sets[:primary[:secondary,...[:metric,...]]]]

  Squat                       3 sets, weight and reps
  Squat:4:quads:glutes        4 sets, quads primary, glutes secondary
  Plank:3:core::time          3 timed sets

COMMANDS:

  add      Create a template
  list     List templates
  show     Show a template's exercises
  rename   Rename a template
  delete   Delete a template (past sessions keep their copy)`,
}

var templateAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a template",
	Long: `Create a workout template.

Examples:
  gymlog template add "Push" -e "Bench Press:4:chest:triceps,shoulders" -e "Dips:3:triceps"
  gymlog template add "Core" -e "Plank:3:core::time"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exercises := make([]models.TemplateExercise, 0, len(templateExercises))
		for _, spec := range templateExercises {
			ex, err := parseExerciseSpec(spec)
			if err != nil {
				return err
			}
			exercises = append(exercises, ex)
		}

		uid, err := userID()
		if err != nil {
			return err
		}

		tmpl, err := repo.CreateTemplate(cmd.Context(), uid, args[0], exercises)
		if err != nil {
			return fmt.Errorf("failed to create template: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, color.GreenString("✓ Created template %s", tmpl.Name))
		fmt.Fprintf(out, "  %s %d exercises\n", color.New(color.Faint).Sprintf("#%d", tmpl.ID), len(tmpl.Exercises))
		return nil
	},
}

var templateListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		templates, err := repo.ListTemplates(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list templates: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(templates) == 0 {
			fmt.Fprintln(out, "No templates found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, t := range templates {
			names := make([]string, 0, len(t.Exercises))
			for _, e := range t.Exercises {
				names = append(names, e.ExerciseName)
			}
			fmt.Fprintf(out, "%s %s %s\n",
				faint.Sprint(padRight(fmt.Sprintf("#%d", t.ID), 5)),
				padRight(t.Name, 20),
				faint.Sprint(truncate(strings.Join(names, ", "), 50)))
		}
		return nil
	},
}

var templateShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("template", args[0])
		if err != nil {
			return err
		}

		t, err := repo.GetTemplate(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("template not found: %w", err)
		}

		out := cmd.OutOrStdout()
		faint := color.New(color.Faint)
		fmt.Fprintf(out, "%s %s\n", color.New(color.Bold).Sprint(t.Name), faint.Sprintf("#%d", t.ID))
		fmt.Fprintf(out, "  Created: %s\n", t.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Fprintln(out)
		for i, e := range t.Exercises {
			metrics := make([]string, 0, len(e.Metrics))
			for _, m := range e.Metrics {
				metrics = append(metrics, m.Name)
			}
			muscles := e.PrimaryMuscleGroup
			if len(e.SecondaryMuscleGroups) > 0 {
				muscles += " + " + strings.Join(e.SecondaryMuscleGroups, ", ")
			}
			fmt.Fprintf(out, "  %d. %s  %d sets  %s  %s\n",
				i+1, padRight(e.ExerciseName, 18), e.Sets,
				padRight(muscles, 24), faint.Sprint(strings.Join(metrics, ", ")))
		}
		return nil
	},
}

var templateRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a template",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("template", args[0])
		if err != nil {
			return err
		}

		name := args[1]
		t, err := repo.UpdateTemplate(cmd.Context(), id, models.TemplatePatch{Name: &name})
		if err != nil {
			return fmt.Errorf("failed to rename template: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ Renamed template #%d to %s", t.ID, t.Name))
		return nil
	},
}

var templateDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a template",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("template", args[0])
		if err != nil {
			return err
		}

		if err := repo.DeleteTemplate(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to delete template: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ Deleted template #%d", id))
		return nil
	},
}

func init() {
	templateAddCmd.Flags().StringArrayVarP(&templateExercises, "exercise", "e", nil, "exercise spec (repeatable)")

	templateCmd.AddCommand(templateAddCmd)
	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateShowCmd)
	templateCmd.AddCommand(templateRenameCmd)
	templateCmd.AddCommand(templateDeleteCmd)
	rootCmd.AddCommand(templateCmd)
}
