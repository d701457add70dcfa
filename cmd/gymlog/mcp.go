// ABOUTME: CLI command for starting the MCP server.
// ABOUTME: Runs a stdio-based MCP server for AI assistant integration.
package main

import (
	"github.com/harperreed/gymlog/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server communicates via stdin/stdout. Logs go to stderr or the configured
log file.

CONFIGURATION:

  {
    "mcpServers": {
      "gymlog": {
        "command": "gymlog",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  create_template        Create a workout template
  list_templates         List templates
  delete_template        Delete a template
  start_workout          Start a session from a template
  record_set             Record or overwrite one set
  finish_workout         Finish the active workout
  get_state              Idle or exercising
  list_sessions          List sessions with filters
  get_session            Session with sets and muscle volume
  weekly_volume          Volume per ISO week
  progressive_overload   Average load per session for one exercise
  completion_rate        Planned vs. recorded sets
  top_exercises          Most frequent exercises

AVAILABLE RESOURCES:

  gymlog://state               Current state and active session
  gymlog://sessions/recent     Last 10 sessions
  gymlog://analytics/summary   Weekly volume, completion, top exercises`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := userID()
		if err != nil {
			return err
		}

		server, err := mcp.NewServer(repo, mcp.Options{
			UserID:         uid,
			Version:        version,
			WeekCount:      cfg.GetWeekCount(),
			OverloadPoints: cfg.GetOverloadPoints(),
		})
		if err != nil {
			return err
		}

		return server.Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
