// ABOUTME: Named schema migrations recorded in the migrations ledger.
// ABOUTME: Each migration checks the live schema before altering it and runs at most once.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// migration is a single named schema change. up runs inside a transaction
// together with the ledger insert.
type migration struct {
	name string
	// disableForeignKeys is required for table rebuilds; the pragma is a no-op
	// inside a transaction so it is toggled around it.
	disableForeignKeys bool
	up                 func(ctx context.Context, tx *sql.Tx) error
}

// AppliedMigration is one row of the migrations ledger.
type AppliedMigration struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	ExecutedAt time.Time `json:"executed_at"`
}

// registeredMigrations run in this order on every EnsureSchema.
var registeredMigrations = []migration{
	{name: "add_exercise_muscle_and_position", up: migrateExerciseMuscleAndPosition},
	{name: "add_session_exercise_snapshot", up: migrateSessionExerciseSnapshot},
	{name: "add_session_lifecycle_columns", up: migrateSessionLifecycle},
	{name: "add_set_index", up: migrateSetIndex},
	{name: "detach_sessions_from_templates", disableForeignKeys: true, up: migrateDetachSessions},
	{name: "add_query_indexes", up: migrateQueryIndexes},
}

// MigrationNames returns the registered migration names in execution order.
func MigrationNames() []string {
	names := make([]string, 0, len(registeredMigrations))
	for _, m := range registeredMigrations {
		names = append(names, m.name)
	}
	return names
}

// runMigrations applies every migration not yet in the ledger, in order.
func (d *DB) runMigrations(ctx context.Context, migrations []migration) error {
	applied, err := appliedMigrationNames(ctx, d.db)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationFailure, err)
	}

	for _, m := range migrations {
		if applied[m.name] {
			log.WithField("migration", m.name).Debug("migration already applied")
			continue
		}
		if err := d.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrMigrationFailure, m.name, err)
		}
		log.WithField("migration", m.name).Info("applied migration")
	}
	return nil
}

func (d *DB) applyMigration(ctx context.Context, m migration) (err error) {
	if m.disableForeignKeys {
		if _, err := d.db.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
			return fmt.Errorf("disable foreign keys: %w", err)
		}
		defer func() {
			if _, fkErr := d.db.ExecContext(context.WithoutCancel(ctx), "PRAGMA foreign_keys = ON"); fkErr != nil {
				err = multierr.Append(err, fmt.Errorf("enable foreign keys: %w", fkErr))
			}
		}()
	}

	return d.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM migrations WHERE name = ?`, m.name).Scan(&n); err != nil {
			return fmt.Errorf("check ledger: %w", err)
		}
		if n > 0 {
			return nil
		}

		if err := m.up(ctx, tx); err != nil {
			return err
		}

		if m.disableForeignKeys {
			if err := foreignKeyCheck(ctx, tx); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO migrations (name, executed_at) VALUES (?, ?)`,
			m.name, formatTime(now()),
		)
		if err != nil {
			return fmt.Errorf("record migration: %w", err)
		}
		return nil
	})
}

// AppliedMigrations lists the migrations ledger in execution order.
func (d *DB) AppliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	if err := d.checkReady(); err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, `SELECT id, name, executed_at FROM migrations ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	defer rows.Close()

	var out []AppliedMigration
	for rows.Next() {
		var m AppliedMigration
		var executedAt string
		if err := rows.Scan(&m.ID, &m.Name, &executedAt); err != nil {
			return nil, fmt.Errorf("scan migration: %w", err)
		}
		m.ExecutedAt = parseTime(executedAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

func appliedMigrationNames(ctx context.Context, q queryer) (map[string]bool, error) {
	rows, err := q.QueryContext(ctx, `SELECT name FROM migrations`)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		names[name] = true
	}
	return names, rows.Err()
}

// addColumn adds a column unless it already exists.
func addColumn(ctx context.Context, tx *sql.Tx, table, column, definition string) error {
	cols, err := tableColumns(ctx, tx, table)
	if err != nil {
		return err
	}
	if cols[column] {
		return nil
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("add %s.%s: %w", table, column, err)
	}
	return nil
}

func foreignKeyCheck(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, "PRAGMA foreign_key_check")
	if err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	defer rows.Close()

	var violations []string
	for rows.Next() {
		var (
			table  string
			rowID  sql.NullInt64
			parent string
			fkID   int
		)
		if err := rows.Scan(&table, &rowID, &parent, &fkID); err != nil {
			return fmt.Errorf("scan foreign key check: %w", err)
		}
		violations = append(violations, fmt.Sprintf("%s(%d)->%s", table, rowID.Int64, parent))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(violations) > 0 {
		return fmt.Errorf("%w: foreign key violations: %s", ErrConstraintViolation, strings.Join(violations, ", "))
	}
	return nil
}

func migrateExerciseMuscleAndPosition(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"template_exercises", "session_exercises"} {
		if err := addColumn(ctx, tx, table, "primary_muscle_group", "TEXT NOT NULL DEFAULT ''"); err != nil {
			return err
		}
		if err := addColumn(ctx, tx, table, "position", "INTEGER NOT NULL DEFAULT 0"); err != nil {
			return err
		}
	}
	return nil
}

func migrateSessionExerciseSnapshot(ctx context.Context, tx *sql.Tx) error {
	if err := addColumn(ctx, tx, "session_exercises", "planned_sets", "INTEGER NOT NULL DEFAULT 3"); err != nil {
		return err
	}
	return addColumn(ctx, tx, "session_exercises", "metrics", "TEXT NOT NULL DEFAULT '[]'")
}

func migrateSessionLifecycle(ctx context.Context, tx *sql.Tx) error {
	if err := addColumn(ctx, tx, "workout_sessions", "template_name", "TEXT NOT NULL DEFAULT ''"); err != nil {
		return err
	}
	if err := addColumn(ctx, tx, "workout_sessions", "ended_at", "TEXT"); err != nil {
		return err
	}
	if err := addColumn(ctx, tx, "workout_sessions", "duration_minutes", "INTEGER"); err != nil {
		return err
	}

	// Older rows only carried the template reference.
	_, err := tx.ExecContext(ctx, `
		UPDATE workout_sessions
		SET template_name = COALESCE(
			(SELECT t.name FROM workout_templates t WHERE t.id = workout_sessions.workout_template_id), '')
		WHERE template_name = ''
	`)
	if err != nil {
		return fmt.Errorf("backfill template_name: %w", err)
	}
	return nil
}

func migrateSetIndex(ctx context.Context, tx *sql.Tx) error {
	if err := addColumn(ctx, tx, "session_sets", "set_index", "INTEGER NOT NULL DEFAULT 0"); err != nil {
		return err
	}

	// Number existing sets 1..n per exercise in insertion order.
	_, err := tx.ExecContext(ctx, `
		UPDATE session_sets
		SET set_index = (
			SELECT COUNT(*) FROM session_sets s2
			WHERE s2.session_exercise_id = session_sets.session_exercise_id
			AND s2.id <= session_sets.id
		)
		WHERE set_index = 0
	`)
	if err != nil {
		return fmt.Errorf("backfill set_index: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_session_sets_exercise_index
		ON session_sets(session_exercise_id, set_index)
	`)
	if err != nil {
		return fmt.Errorf("create set index: %w", err)
	}
	return nil
}

// sessionsTableV2 detaches sessions from templates: deleting a template keeps its history.
const sessionsTableV2 = `
CREATE TABLE workout_sessions_v2 (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	workout_template_id INTEGER,
	user_id TEXT NOT NULL DEFAULT '',
	session_date TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	template_name TEXT NOT NULL DEFAULT '',
	ended_at TEXT,
	duration_minutes INTEGER,
	FOREIGN KEY (workout_template_id) REFERENCES workout_templates(id) ON DELETE SET NULL
)`

func migrateDetachSessions(ctx context.Context, tx *sql.Tx) error {
	cascades, err := sessionTemplateFKCascades(ctx, tx)
	if err != nil {
		return err
	}
	if !cascades {
		return nil
	}

	log.Warn("workout_sessions cascades from templates, rebuilding table")

	stmts := []string{
		sessionsTableV2,
		`INSERT INTO workout_sessions_v2
			(id, workout_template_id, user_id, session_date, created_at, updated_at, template_name, ended_at, duration_minutes)
		SELECT id, workout_template_id, user_id, session_date, created_at, updated_at, template_name, ended_at, duration_minutes
		FROM workout_sessions`,
		`DROP TABLE workout_sessions`,
		`ALTER TABLE workout_sessions_v2 RENAME TO workout_sessions`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("rebuild workout_sessions: %w", err)
		}
	}
	return createSessionIndexes(ctx, tx)
}

// sessionTemplateFKCascades reports whether workout_sessions still deletes with its template.
func sessionTemplateFKCascades(ctx context.Context, tx *sql.Tx) (bool, error) {
	rows, err := tx.QueryContext(ctx, "PRAGMA foreign_key_list(workout_sessions)")
	if err != nil {
		return false, fmt.Errorf("foreign key list: %w", err)
	}
	defer rows.Close()

	cascades := false
	for rows.Next() {
		var (
			id, seq                       int
			table, from                   string
			to                            sql.NullString
			onUpdate, onDelete, matchRule string
		)
		if err := rows.Scan(&id, &seq, &table, &from, &to, &onUpdate, &onDelete, &matchRule); err != nil {
			return false, fmt.Errorf("scan foreign key list: %w", err)
		}
		if table == "workout_templates" && strings.EqualFold(onDelete, "CASCADE") {
			cascades = true
		}
	}
	return cascades, rows.Err()
}

func createSessionIndexes(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_workout_sessions_date ON workout_sessions(session_date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_workout_sessions_template_name ON workout_sessions(template_name)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create session index: %w", err)
		}
	}
	return nil
}

func migrateQueryIndexes(ctx context.Context, tx *sql.Tx) error {
	if err := createSessionIndexes(ctx, tx); err != nil {
		return err
	}
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_template_exercises_template ON template_exercises(workout_template_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_session_exercises_session ON session_exercises(workout_session_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_session_muscle_volume_session ON session_muscle_volume(workout_session_id)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
