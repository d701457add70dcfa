// ABOUTME: Workout session lifecycle and queries for SQLite storage.
// ABOUTME: Sessions copy their template's exercises at start and roll up muscle volume at finish.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/harperreed/gymlog/internal/analytics"
	"github.com/harperreed/gymlog/internal/models"
	log "github.com/sirupsen/logrus"
)

const sessionColumns = `id, workout_template_id, template_name, user_id, session_date,
	ended_at, duration_minutes, created_at, updated_at`

const sessionExerciseColumns = `id, workout_session_id, exercise_name, primary_muscle_group,
	secondary_muscle_groups, planned_sets, metrics, position, created_at, updated_at`

// StartSession creates a session from a template, snapshotting its exercises.
// Later template edits never reach the copied rows.
func (d *DB) StartSession(ctx context.Context, templateID int64, date time.Time) (*models.Session, error) {
	if err := d.checkReady(); err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = now()
	}

	var sessionID int64
	err := d.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var name, userID string
		err := tx.QueryRowContext(ctx,
			`SELECT name, user_id FROM workout_templates WHERE id = ?`, templateID,
		).Scan(&name, &userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return notFound("template", templateID)
			}
			return fmt.Errorf("read template: %w", err)
		}

		exercises, err := listTemplateExercises(ctx, tx, templateID)
		if err != nil {
			return err
		}

		ts := formatTime(now())
		result, err := tx.ExecContext(ctx, `
			INSERT INTO workout_sessions
				(workout_template_id, template_name, user_id, session_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, templateID, name, userID, formatTime(date), ts, ts)
		if err != nil {
			return wrapErr("create session", err)
		}
		if sessionID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("create session: %w", err)
		}

		for _, e := range exercises {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO session_exercises
					(workout_session_id, exercise_name, primary_muscle_group, secondary_muscle_groups,
					 planned_sets, metrics, position, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				sessionID, e.ExerciseName, e.PrimaryMuscleGroup, encodeStrings(e.SecondaryMuscleGroups),
				e.Sets, encodeMetricDefs(e.Metrics), e.Position, ts, ts,
			)
			if err != nil {
				return wrapErr("snapshot exercise", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"session_id": sessionID, "template_id": templateID}).Info("started session")
	return d.GetSessionDetail(ctx, sessionID)
}

// FinishSession records the end time and duration and recomputes the muscle
// volume rollup in the same transaction.
func (d *DB) FinishSession(ctx context.Context, sessionID int64, endedAt time.Time) (*models.Session, error) {
	if err := d.checkReady(); err != nil {
		return nil, err
	}
	if endedAt.IsZero() {
		endedAt = now()
	}

	err := d.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		session, err := loadSessionDetail(ctx, tx, sessionID)
		if err != nil {
			return err
		}

		minutes := int(math.Round(endedAt.Sub(session.SessionDate).Minutes()))
		if minutes < 0 {
			minutes = 0
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE workout_sessions SET ended_at = ?, duration_minutes = ?, updated_at = ? WHERE id = ?`,
			formatTime(endedAt), minutes, formatTime(now()), sessionID,
		)
		if err != nil {
			return wrapErr("finish session", err)
		}

		_, err = replaceMuscleVolume(ctx, tx, session)
		return err
	})
	if err != nil {
		return nil, err
	}

	return d.GetSessionDetail(ctx, sessionID)
}

// ListSessions returns sessions matching the filter, newest first, without children.
func (d *DB) ListSessions(ctx context.Context, filter models.SessionFilter) ([]*models.Session, error) {
	if err := d.checkReady(); err != nil {
		return nil, err
	}
	return listSessions(ctx, d.db, filter)
}

// GetSessionDetail returns a session with its exercises and sets fully materialized.
func (d *DB) GetSessionDetail(ctx context.Context, sessionID int64) (*models.Session, error) {
	if err := d.checkReady(); err != nil {
		return nil, err
	}
	return loadSessionDetail(ctx, d.db, sessionID)
}

// ListSessionDetails is ListSessions with every session fully materialized.
func (d *DB) ListSessionDetails(ctx context.Context, filter models.SessionFilter) ([]*models.Session, error) {
	if err := d.checkReady(); err != nil {
		return nil, err
	}

	sessions, err := listSessions(ctx, d.db, filter)
	if err != nil {
		return nil, err
	}
	for _, s := range sessions {
		if err := loadSessionChildren(ctx, d.db, s); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

// DeleteSession removes a session with its exercises, sets, and rollup (cascade delete).
func (d *DB) DeleteSession(ctx context.Context, sessionID int64) error {
	if err := d.checkReady(); err != nil {
		return err
	}

	return d.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM workout_sessions WHERE id = ?`, sessionID)
		if err != nil {
			return wrapErr("delete session", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		if affected == 0 {
			return notFound("session", sessionID)
		}
		return nil
	})
}

// RefreshMuscleVolume recomputes the per-muscle set counts of a session.
func (d *DB) RefreshMuscleVolume(ctx context.Context, sessionID int64) ([]models.MuscleVolume, error) {
	if err := d.checkReady(); err != nil {
		return nil, err
	}

	var volumes []models.MuscleVolume
	err := d.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		session, err := loadSessionDetail(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		volumes, err = replaceMuscleVolume(ctx, tx, session)
		return err
	})
	if err != nil {
		return nil, err
	}
	return volumes, nil
}

// ListMuscleVolume returns the stored rollup of a session ordered by muscle name.
func (d *DB) ListMuscleVolume(ctx context.Context, sessionID int64) ([]models.MuscleVolume, error) {
	if err := d.checkReady(); err != nil {
		return nil, err
	}

	exists, err := rowExists(ctx, d.db, "workout_sessions", sessionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound("session", sessionID)
	}
	return listMuscleVolume(ctx, d.db, sessionID)
}

func replaceMuscleVolume(ctx context.Context, tx *sql.Tx, session *models.Session) ([]models.MuscleVolume, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM session_muscle_volume WHERE workout_session_id = ?`, session.ID); err != nil {
		return nil, wrapErr("clear muscle volume", err)
	}

	ts := formatTime(now())
	volumes := analytics.MuscleVolume(session)
	for i := range volumes {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO session_muscle_volume (workout_session_id, muscle_name, total_sets, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, session.ID, volumes[i].MuscleName, volumes[i].TotalSets, ts, ts)
		if err != nil {
			return nil, wrapErr("insert muscle volume", err)
		}
		if volumes[i].ID, err = result.LastInsertId(); err != nil {
			return nil, fmt.Errorf("insert muscle volume: %w", err)
		}
		volumes[i].CreatedAt = parseTime(ts)
		volumes[i].UpdatedAt = volumes[i].CreatedAt
	}
	return volumes, nil
}

func listMuscleVolume(ctx context.Context, q queryer, sessionID int64) ([]models.MuscleVolume, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, workout_session_id, muscle_name, total_sets, created_at, updated_at
		FROM session_muscle_volume
		WHERE workout_session_id = ?
		ORDER BY muscle_name
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list muscle volume: %w", err)
	}
	defer rows.Close()

	var volumes []models.MuscleVolume
	for rows.Next() {
		var v models.MuscleVolume
		var createdAt, updatedAt string
		if err := rows.Scan(&v.ID, &v.SessionID, &v.MuscleName, &v.TotalSets, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan muscle volume: %w", err)
		}
		v.CreatedAt = parseTime(createdAt)
		v.UpdatedAt = parseTime(updatedAt)
		volumes = append(volumes, v)
	}
	return volumes, rows.Err()
}

func listSessions(ctx context.Context, q queryer, filter models.SessionFilter) ([]*models.Session, error) {
	var where []string
	var args []any

	if filter.TemplateName != nil {
		where = append(where, "LOWER(template_name) = LOWER(?)")
		args = append(args, strings.TrimSpace(*filter.TemplateName))
	}
	if filter.From != nil {
		where = append(where, "session_date >= ?")
		args = append(args, formatTime(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "session_date <= ?")
		args = append(args, formatTime(*filter.To))
	}

	query := `SELECT ` + sessionColumns + ` FROM workout_sessions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY session_date DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var s models.Session
	var templateID sql.NullInt64
	var sessionDate, createdAt, updatedAt string
	var endedAt sql.NullString
	var duration sql.NullInt64

	err := row.Scan(&s.ID, &templateID, &s.TemplateName, &s.UserID, &sessionDate,
		&endedAt, &duration, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if templateID.Valid {
		id := templateID.Int64
		s.TemplateID = &id
	}
	s.SessionDate = parseTime(sessionDate)
	if endedAt.Valid && endedAt.String != "" {
		t := parseTime(endedAt.String)
		s.EndedAt = &t
	}
	if duration.Valid {
		s.WithDuration(int(duration.Int64))
	}
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return &s, nil
}

func loadSessionDetail(ctx context.Context, q queryer, sessionID int64) (*models.Session, error) {
	s, err := scanSession(q.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions WHERE id = ?`, sessionID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("session", sessionID)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if err := loadSessionChildren(ctx, q, s); err != nil {
		return nil, err
	}
	return s, nil
}

// loadSessionChildren fills in exercises and their sets in two queries.
func loadSessionChildren(ctx context.Context, q queryer, s *models.Session) error {
	exercises, err := listSessionExercises(ctx, q, s.ID)
	if err != nil {
		return err
	}

	sets, err := listSessionSets(ctx, q, s.ID)
	if err != nil {
		return err
	}

	for i := range exercises {
		exercises[i].Sets = sets[exercises[i].ID]
	}
	s.Exercises = exercises
	return nil
}

func listSessionExercises(ctx context.Context, q queryer, sessionID int64) ([]models.SessionExercise, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+sessionExerciseColumns+` FROM session_exercises WHERE workout_session_id = ? ORDER BY position, id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list session exercises: %w", err)
	}
	defer rows.Close()

	var exercises []models.SessionExercise
	for rows.Next() {
		var e models.SessionExercise
		var secondary, metrics, createdAt, updatedAt string
		err := rows.Scan(&e.ID, &e.SessionID, &e.ExerciseName, &e.PrimaryMuscleGroup,
			&secondary, &e.PlannedSets, &metrics, &e.Position, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan session exercise: %w", err)
		}
		e.SecondaryMuscleGroups = decodeStrings(secondary)
		e.Metrics = decodeMetricDefs(metrics)
		e.CreatedAt = parseTime(createdAt)
		e.UpdatedAt = parseTime(updatedAt)
		exercises = append(exercises, e)
	}
	return exercises, rows.Err()
}

// listSessionSets returns a session's sets keyed by session exercise id, in set order.
func listSessionSets(ctx context.Context, q queryer, sessionID int64) (map[int64][]models.SessionSet, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+setColumnsQualified+`
		FROM session_sets ss
		JOIN session_exercises se ON se.id = ss.session_exercise_id
		WHERE se.workout_session_id = ?
		ORDER BY ss.session_exercise_id, ss.set_index
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session sets: %w", err)
	}
	defer rows.Close()

	sets := make(map[int64][]models.SessionSet)
	for rows.Next() {
		s, err := scanSet(rows)
		if err != nil {
			return nil, err
		}
		sets[s.SessionExerciseID] = append(sets[s.SessionExerciseID], *s)
	}
	return sets, rows.Err()
}
