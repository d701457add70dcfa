// ABOUTME: Root Cobra command for the gymlog CLI.
// ABOUTME: Loads config, sets up logging, and opens the database via PersistentPre/PostRunE.
package main

import (
	"fmt"
	"io"

	"github.com/harperreed/gymlog/internal/config"
	"github.com/harperreed/gymlog/internal/logging"
	"github.com/harperreed/gymlog/internal/storage"
	"github.com/harperreed/gymlog/internal/tracker"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	cfg       *config.Config
	repo      *storage.DB
	logCloser io.Closer

	dbPath   string
	logLevel string
	logJSON  bool
	logTee   bool
)

// commands that never touch the database
var noStorageCommands = map[string]bool{
	"help":          true,
	"completion":    true,
	"install-skill": true,
	"__complete":    true,
}

var rootCmd = &cobra.Command{
	Use:     "gymlog",
	Short:   "Local workout tracker",
	Version: version,
	Long: `Gymlog tracks strength workouts in a local SQLite database.

TEMPLATES:

  Templates are reusable workouts. Each exercise has a planned set count,
  muscle groups, and the metrics recorded per set (weight and reps by default).

  $ gymlog template add "Leg Day" -e "Squat:4:quads:glutes" -e "Plank:3:core::time"
  $ gymlog template list

WORKOUTS:

  Starting a workout copies the template's exercises into a new session, so
  editing or deleting the template later never changes past sessions.

  $ gymlog start 1                       # Start from template 1
  $ gymlog set 3 1 weight=100 reps=5     # Record set 1 of session exercise 3
  $ gymlog set 3 1 weight=105 reps=5     # Recording the same set again overwrites it
  $ gymlog finish                        # Finish the active workout
  $ gymlog state                         # Idle or exercising?

ANALYTICS:

  $ gymlog stats weekly                  # Volume per ISO week
  $ gymlog stats overload squat          # Average load per session
  $ gymlog stats completion              # Planned vs. recorded sets
  $ gymlog stats top                     # Most frequent exercises

MCP INTEGRATION:

  Run 'gymlog mcp' to start the Model Context Protocol server:

  {
    "mcpServers": {
      "gymlog": { "command": "gymlog", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  Data is stored at ~/.local/share/gymlog/gymlog.db (respects XDG_DATA_HOME).
  Settings live in ~/.config/gymlog/config.json.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.GetLogLevel()
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		logCloser = logging.Setup(logging.SetupParams{
			LogFileName:   cfg.GetLogFile(),
			LogLevel:      level,
			LogToStderr:   logTee || cfg.LogStderr,
			LogFormatJSON: logJSON || cfg.LogJSON,
		})

		if noStorageCommands[cmd.Name()] {
			return nil
		}

		repo, err = cfg.OpenStorage(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		log.WithField("path", repo.Path()).Debug("database opened")
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeResources()
	},
}

func closeResources() error {
	var err error
	if repo != nil {
		err = repo.Close()
		repo = nil
	}
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
	return err
}

// userID returns the owner id, creating one on first use.
func userID() (string, error) {
	return cfg.EnsureUserID()
}

func newTracker() *tracker.Tracker {
	return tracker.New(repo)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: data dir from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")
	rootCmd.PersistentFlags().BoolVar(&logTee, "log-stderr", false, "copy file logs to stderr")
}
