// ABOUTME: Reads and writes the app_state singleton row.
// ABOUTME: The row always exists once EnsureSchema has run.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/harperreed/gymlog/internal/models"
)

// GetExercisingState returns whether a workout is in progress and its template.
func (d *DB) GetExercisingState(ctx context.Context) (*models.AppState, error) {
	if err := d.checkReady(); err != nil {
		return nil, err
	}

	var st models.AppState
	var active sql.NullInt64
	var updatedAt string
	err := d.db.QueryRowContext(ctx,
		`SELECT is_exercising, active_template_id, updated_at FROM app_state WHERE id = 1`,
	).Scan(&st.IsExercising, &active, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("app state row: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("get app state: %w", err)
	}

	if active.Valid {
		id := active.Int64
		st.ActiveTemplateID = &id
	}
	st.UpdatedAt = parseTime(updatedAt)
	return &st, nil
}

// SetExercisingState overwrites the singleton. Going idle always clears the
// template reference; an unknown template id is rejected.
func (d *DB) SetExercisingState(ctx context.Context, isExercising bool, activeTemplateID *int64) error {
	if err := d.checkReady(); err != nil {
		return err
	}
	if !isExercising {
		activeTemplateID = nil
	}

	return d.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var active any
		if activeTemplateID != nil {
			exists, err := rowExists(ctx, tx, "workout_templates", *activeTemplateID)
			if err != nil {
				return err
			}
			if !exists {
				return notFound("template", *activeTemplateID)
			}
			active = *activeTemplateID
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO app_state (id, is_exercising, active_template_id, updated_at)
			VALUES (1, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				is_exercising = excluded.is_exercising,
				active_template_id = excluded.active_template_id,
				updated_at = excluded.updated_at
		`, isExercising, active, formatTime(now()))
		if err != nil {
			return wrapErr("set app state", err)
		}
		return nil
	})
}
