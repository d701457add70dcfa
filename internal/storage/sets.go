// ABOUTME: Session set upsert and delete for SQLite storage.
// ABOUTME: A set is keyed by (session exercise, set index) and written with one constrained upsert.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/harperreed/gymlog/internal/models"
	log "github.com/sirupsen/logrus"
)

const setColumns = `id, session_exercise_id, set_index, reps_or_time, weight, custom_metrics, created_at, updated_at`

const setColumnsQualified = `ss.id, ss.session_exercise_id, ss.set_index, ss.reps_or_time, ss.weight,
	ss.custom_metrics, ss.created_at, ss.updated_at`

// RecordSet inserts the set at setIndex or overwrites it when it already exists.
// The weight and reps_or_time columns mirror the normalized metrics bag.
func (d *DB) RecordSet(ctx context.Context, sessionExerciseID int64, setIndex int, metrics models.MetricBag) (*models.SessionSet, error) {
	if err := d.checkReady(); err != nil {
		return nil, err
	}
	if setIndex < 1 {
		return nil, invalidInput("set index must be at least 1, got %d", setIndex)
	}

	encoded, err := metrics.Encode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	weight, repsOrTime := setColumnValues(metrics)

	var set *models.SessionSet
	err = d.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		exists, err := rowExists(ctx, tx, "session_exercises", sessionExerciseID)
		if err != nil {
			return err
		}
		if !exists {
			return notFound("session exercise", sessionExerciseID)
		}

		ts := formatTime(now())
		row := tx.QueryRowContext(ctx, `
			INSERT INTO session_sets
				(session_exercise_id, set_index, reps_or_time, weight, custom_metrics, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(session_exercise_id, set_index) DO UPDATE SET
				reps_or_time = excluded.reps_or_time,
				weight = excluded.weight,
				custom_metrics = excluded.custom_metrics,
				updated_at = excluded.updated_at
			RETURNING `+setColumns,
			sessionExerciseID, setIndex, repsOrTime, weight, encoded, ts, ts,
		)
		set, err = scanSet(row)
		if err != nil {
			return wrapErr("record set", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"session_exercise_id": sessionExerciseID,
		"set_index":           setIndex,
	}).Debug("recorded set")
	return set, nil
}

// DeleteSet removes one set of a session exercise.
func (d *DB) DeleteSet(ctx context.Context, sessionExerciseID int64, setIndex int) error {
	if err := d.checkReady(); err != nil {
		return err
	}

	return d.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM session_sets WHERE session_exercise_id = ? AND set_index = ?`,
			sessionExerciseID, setIndex,
		)
		if err != nil {
			return wrapErr("delete set", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete set: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("set %d of session exercise %d: %w", setIndex, sessionExerciseID, ErrNotFound)
		}
		return nil
	})
}

// scanSet reads a set row. An undecodable metrics bag is kept as raw text
// so the row still loads.
func scanSet(row rowScanner) (*models.SessionSet, error) {
	var s models.SessionSet
	var raw, createdAt, updatedAt string

	err := row.Scan(&s.ID, &s.SessionExerciseID, &s.SetIndex, &s.RepsOrTime, &s.Weight, &raw, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan set: %w", err)
	}

	bag, err := models.ParseMetricBag(raw)
	if err != nil {
		log.WithFields(log.Fields{"set_id": s.ID, "error": err}).Warn("malformed set metrics")
		s.RawMetrics = raw
	} else {
		s.CustomMetrics = bag
	}
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return &s, nil
}
