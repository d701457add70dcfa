// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Creates workout tables, runs migrations, and self-heals the app_state singleton.
package storage

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

const schema = `
CREATE TABLE IF NOT EXISTS workout_templates (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS template_exercises (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	workout_template_id INTEGER NOT NULL,
	exercise_name TEXT NOT NULL,
	secondary_muscle_groups TEXT NOT NULL DEFAULT '[]',
	sets INTEGER NOT NULL DEFAULT 3,
	metrics TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	FOREIGN KEY (workout_template_id) REFERENCES workout_templates(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS workout_sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	workout_template_id INTEGER,
	user_id TEXT NOT NULL DEFAULT '',
	session_date TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	FOREIGN KEY (workout_template_id) REFERENCES workout_templates(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS session_exercises (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	workout_session_id INTEGER NOT NULL,
	exercise_name TEXT NOT NULL,
	secondary_muscle_groups TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	FOREIGN KEY (workout_session_id) REFERENCES workout_sessions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS session_sets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_exercise_id INTEGER NOT NULL,
	reps_or_time REAL NOT NULL DEFAULT 0,
	weight REAL NOT NULL DEFAULT 0,
	custom_metrics TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	FOREIGN KEY (session_exercise_id) REFERENCES session_exercises(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS session_muscle_volume (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	workout_session_id INTEGER NOT NULL,
	muscle_name TEXT NOT NULL,
	total_sets INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	FOREIGN KEY (workout_session_id) REFERENCES workout_sessions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS migrations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	executed_at TEXT NOT NULL
);
`

const appStateSchema = `
CREATE TABLE IF NOT EXISTS app_state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	is_exercising INTEGER NOT NULL DEFAULT 0,
	active_template_id INTEGER,
	updated_at TEXT NOT NULL DEFAULT '',
	FOREIGN KEY (active_template_id) REFERENCES workout_templates(id) ON DELETE SET NULL
)`

// appStateColumns are the columns the app_state table must have; any missing one
// means the table predates the current shape and is rebuilt.
var appStateColumns = []string{"id", "is_exercising", "active_template_id", "updated_at"}

// EnsureSchema creates missing tables, runs pending migrations, and makes sure the
// app_state singleton exists. It is idempotent and must succeed before any other call.
func (d *DB) EnsureSchema(ctx context.Context) error {
	if d == nil || d.db == nil {
		return ErrNotInitialized
	}

	// foreign_keys must be on before any table is touched so cascades apply
	if _, err := d.db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("%w: enable foreign keys: %w", ErrMigrationFailure, err)
	}

	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: create tables: %w", ErrMigrationFailure, err)
	}

	if err := d.ensureAppState(ctx); err != nil {
		return fmt.Errorf("%w: app state: %w", ErrMigrationFailure, err)
	}

	if err := d.runMigrations(ctx, registeredMigrations); err != nil {
		return err
	}

	d.ready.Store(true)
	return nil
}

// ensureAppState creates the app_state table, rebuilds it when its shape is stale,
// and inserts the singleton row when absent. Only this table is ever rebuilt
// because it carries no user data.
func (d *DB) ensureAppState(ctx context.Context) error {
	cols, err := tableColumns(ctx, d.db, "app_state")
	if err != nil {
		return err
	}

	if len(cols) > 0 {
		var missing []string
		for _, c := range appStateColumns {
			if !cols[c] {
				missing = append(missing, c)
			}
		}
		if len(missing) > 0 {
			log.WithField("missing", strings.Join(missing, ",")).Warn("app_state has a stale shape, recreating")
			if _, err := d.db.ExecContext(ctx, "DROP TABLE app_state"); err != nil {
				return fmt.Errorf("drop stale app_state: %w", err)
			}
		}
	}

	if _, err := d.db.ExecContext(ctx, appStateSchema); err != nil {
		return fmt.Errorf("create app_state: %w", err)
	}

	_, err = d.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO app_state (id, is_exercising, active_template_id, updated_at) VALUES (1, 0, NULL, ?)`,
		formatTime(now()),
	)
	if err != nil {
		return fmt.Errorf("insert app_state row: %w", err)
	}
	return nil
}

// tableColumns returns the set of column names of table, empty if it doesn't exist.
func tableColumns(ctx context.Context, q queryer, table string) (map[string]bool, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan table info %s: %w", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// indexExists reports whether an index with the given name exists.
func indexExists(ctx context.Context, q queryer, name string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?`, name,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", name, err)
	}
	return n > 0, nil
}
