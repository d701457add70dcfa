// ABOUTME: CLI command that reports the schema migration ledger.
// ABOUTME: Migrations run automatically when the database opens.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/gymlog/internal/storage"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:     "migrate",
	Aliases: []string{"schema"},
	Short:   "Show applied schema migrations",
	Long: `Show the named schema migrations and when each was applied.

Opening the database already brings the schema up to date, so this command
only reports state. Each migration runs once, inside its own transaction,
and is recorded in the migrations table.

The database lives at ~/.local/share/gymlog/gymlog.db unless --db is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applied, err := repo.AppliedMigrations(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read migrations: %w", err)
		}

		done := make(map[string]storage.AppliedMigration, len(applied))
		for _, m := range applied {
			done[m.Name] = m
		}

		out := cmd.OutOrStdout()
		faint := color.New(color.Faint)
		fmt.Fprintf(out, "Database: %s\n\n", repo.Path())
		for _, name := range storage.MigrationNames() {
			m, ok := done[name]
			if !ok {
				fmt.Fprintf(out, "%s %s\n", color.YellowString("pending"), name)
				continue
			}
			fmt.Fprintf(out, "%s %s %s\n", color.GreenString("applied"),
				padRight(name, 40), faint.Sprint(m.ExecutedAt.Format("2006-01-02 15:04")))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
