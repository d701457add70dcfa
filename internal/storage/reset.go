// ABOUTME: Wipes all user-generated data while keeping the schema and migrations ledger.
// ABOUTME: Deletes child tables before parents so no orphan survives even without cascades.
package storage

import (
	"context"
	"database/sql"

	log "github.com/sirupsen/logrus"
)

// userTables are listed child first.
var userTables = []string{
	"session_muscle_volume",
	"session_sets",
	"session_exercises",
	"workout_sessions",
	"template_exercises",
	"workout_templates",
}

// DeleteAllData removes every template, session, set, and rollup and resets
// the app state to idle.
func (d *DB) DeleteAllData(ctx context.Context) error {
	if err := d.checkReady(); err != nil {
		return err
	}

	err := d.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		// app_state references templates, clear it first
		_, err := tx.ExecContext(ctx,
			`UPDATE app_state SET is_exercising = 0, active_template_id = NULL, updated_at = ? WHERE id = 1`,
			formatTime(now()),
		)
		if err != nil {
			return wrapErr("reset app state", err)
		}

		for _, table := range userTables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return wrapErr("delete "+table, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("deleted all workout data")
	return nil
}
