// ABOUTME: gymlog configuration management.
// ABOUTME: Handles data location, owner identity, logging, and analytics defaults.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/gymlog/internal/storage"
)

const (
	DefaultWeekCount      = 8
	DefaultOverloadPoints = 8
	DefaultLogLevel       = "info"
	dbFileName            = "gymlog.db"
)

// Config stores gymlog configuration.
type Config struct {
	// DataDir is the directory holding gymlog.db.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/gymlog.
	DataDir string `json:"data_dir,omitempty"`

	// UserID is the owner reference written on templates and sessions.
	// Generated once and saved on first use.
	UserID string `json:"user_id,omitempty"`

	LogLevel string `json:"log_level,omitempty"`
	// LogFile, when set, receives logs with rotation instead of stderr.
	LogFile string `json:"log_file,omitempty"`
	LogJSON bool   `json:"log_json,omitempty"`

	// LogStderr also copies file logs to stderr.
	LogStderr bool `json:"log_stderr,omitempty"`

	WeekCount      int `json:"week_count,omitempty"`
	OverloadPoints int `json:"overload_points,omitempty"`
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetDBPath returns the database file inside the data directory.
func (c *Config) GetDBPath() string {
	return filepath.Join(c.GetDataDir(), dbFileName)
}

// GetLogLevel returns the configured level, defaulting to info.
func (c *Config) GetLogLevel() string {
	if c.LogLevel == "" {
		return DefaultLogLevel
	}
	return c.LogLevel
}

// GetLogFile returns the log file path with ~ expanded, or "" for stderr.
func (c *Config) GetLogFile() string {
	return ExpandPath(c.LogFile)
}

// GetWeekCount returns the number of weeks shown by weekly analytics.
func (c *Config) GetWeekCount() int {
	if c.WeekCount <= 0 {
		return DefaultWeekCount
	}
	return c.WeekCount
}

// GetOverloadPoints returns the fixed width of overload series.
func (c *Config) GetOverloadPoints() int {
	if c.OverloadPoints <= 0 {
		return DefaultOverloadPoints
	}
	return c.OverloadPoints
}

// EnsureUserID generates and saves a user id when none is set yet.
func (c *Config) EnsureUserID() (string, error) {
	if c.UserID != "" {
		return c.UserID, nil
	}
	c.UserID = uuid.New().String()
	if err := c.Save(); err != nil {
		return "", fmt.Errorf("save user id: %w", err)
	}
	return c.UserID, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage opens the database, preferring dbPath when it is set, and
// brings its schema up to date.
func (c *Config) OpenStorage(dbPath string) (*storage.DB, error) {
	if dbPath == "" {
		dbPath = c.GetDBPath()
	}
	return storage.Open(ExpandPath(dbPath))
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "gymlog", "config.json")
}

// Load reads config from disk.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
