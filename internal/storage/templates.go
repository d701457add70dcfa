// ABOUTME: Workout template and template exercise CRUD for SQLite storage.
// ABOUTME: Template exercises cascade with their template; sessions keep their snapshots.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/gymlog/internal/models"
	log "github.com/sirupsen/logrus"
)

const templateExerciseColumns = `id, workout_template_id, exercise_name, primary_muscle_group,
	secondary_muscle_groups, sets, metrics, position, created_at, updated_at`

// CreateTemplate stores a new template together with its exercises.
func (d *DB) CreateTemplate(ctx context.Context, userID, name string, exercises []models.TemplateExercise) (*models.Template, error) {
	if err := d.checkReady(); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("template name is required")
	}
	if err := validateExercises(exercises); err != nil {
		return nil, err
	}

	var id int64
	err := d.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		ts := formatTime(now())
		result, err := tx.ExecContext(ctx,
			`INSERT INTO workout_templates (user_id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			userID, name, ts, ts,
		)
		if err != nil {
			return wrapErr("create template", err)
		}
		if id, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("create template: %w", err)
		}
		return insertTemplateExercises(ctx, tx, id, exercises, ts)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"template_id": id, "exercises": len(exercises)}).Debug("created template")
	return d.GetTemplate(ctx, id)
}

// UpdateTemplate applies a partial update. Replacing the exercise list never
// touches sessions already started from this template.
func (d *DB) UpdateTemplate(ctx context.Context, id int64, patch models.TemplatePatch) (*models.Template, error) {
	if err := d.checkReady(); err != nil {
		return nil, err
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, invalidInput("template name cannot be empty")
	}
	if patch.Exercises != nil {
		if err := validateExercises(*patch.Exercises); err != nil {
			return nil, err
		}
	}

	err := d.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		exists, err := rowExists(ctx, tx, "workout_templates", id)
		if err != nil {
			return err
		}
		if !exists {
			return notFound("template", id)
		}

		ts := formatTime(now())
		if patch.Name != nil {
			_, err = tx.ExecContext(ctx,
				`UPDATE workout_templates SET name = ?, updated_at = ? WHERE id = ?`,
				strings.TrimSpace(*patch.Name), ts, id,
			)
		} else {
			_, err = tx.ExecContext(ctx, `UPDATE workout_templates SET updated_at = ? WHERE id = ?`, ts, id)
		}
		if err != nil {
			return wrapErr("update template", err)
		}

		if patch.Exercises != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM template_exercises WHERE workout_template_id = ?`, id); err != nil {
				return wrapErr("replace template exercises", err)
			}
			return insertTemplateExercises(ctx, tx, id, *patch.Exercises, ts)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return d.GetTemplate(ctx, id)
}

// DeleteTemplate removes a template and its exercises (cascade delete).
// The template of an in-progress workout can't be deleted.
func (d *DB) DeleteTemplate(ctx context.Context, id int64) error {
	if err := d.checkReady(); err != nil {
		return err
	}

	return d.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var exercising bool
		var active sql.NullInt64
		err := tx.QueryRowContext(ctx,
			`SELECT is_exercising, active_template_id FROM app_state WHERE id = 1`,
		).Scan(&exercising, &active)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("read app state: %w", err)
		}
		if exercising && active.Valid && active.Int64 == id {
			return fmt.Errorf("delete template %d: %w: workout in progress", id, ErrConstraintViolation)
		}

		// CASCADE removes template_exercises; sessions are detached (SET NULL)
		result, err := tx.ExecContext(ctx, `DELETE FROM workout_templates WHERE id = ?`, id)
		if err != nil {
			return wrapErr("delete template", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete template: %w", err)
		}
		if affected == 0 {
			return notFound("template", id)
		}
		return nil
	})
}

// GetTemplate retrieves a template with its exercises in display order.
func (d *DB) GetTemplate(ctx context.Context, id int64) (*models.Template, error) {
	if err := d.checkReady(); err != nil {
		return nil, err
	}

	var t models.Template
	var createdAt, updatedAt string
	err := d.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at, updated_at FROM workout_templates WHERE id = ?`, id,
	).Scan(&t.ID, &t.UserID, &t.Name, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("template", id)
		}
		return nil, fmt.Errorf("get template: %w", err)
	}
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)

	t.Exercises, err = listTemplateExercises(ctx, d.db, id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTemplates returns every template with its exercises, sorted by name.
func (d *DB) ListTemplates(ctx context.Context) ([]*models.Template, error) {
	if err := d.checkReady(); err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, user_id, name, created_at, updated_at FROM workout_templates ORDER BY name COLLATE NOCASE, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	var templates []*models.Template
	for rows.Next() {
		var t models.Template
		var createdAt, updatedAt string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &createdAt, &updatedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan template: %w", err)
		}
		t.CreatedAt = parseTime(createdAt)
		t.UpdatedAt = parseTime(updatedAt)
		templates = append(templates, &t)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("list templates: %w", err)
	}
	// The single pooled connection must be released before the next query.
	_ = rows.Close()

	for _, t := range templates {
		if t.Exercises, err = listTemplateExercises(ctx, d.db, t.ID); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

func validateExercises(exercises []models.TemplateExercise) error {
	for i, e := range exercises {
		if strings.TrimSpace(e.ExerciseName) == "" {
			return invalidInput("exercise %d has no name", i+1)
		}
		if e.Sets < 0 {
			return invalidInput("exercise %q has negative set count", e.ExerciseName)
		}
	}
	return nil
}

func insertTemplateExercises(ctx context.Context, tx *sql.Tx, templateID int64, exercises []models.TemplateExercise, ts string) error {
	for i, e := range exercises {
		sets := e.Sets
		if sets == 0 {
			sets = models.DefaultPlannedSets
		}
		metrics := e.Metrics
		if len(metrics) == 0 {
			metrics = models.DefaultMetricDefinitions()
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO template_exercises
				(workout_template_id, exercise_name, primary_muscle_group, secondary_muscle_groups,
				 sets, metrics, position, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			templateID,
			strings.TrimSpace(e.ExerciseName),
			strings.TrimSpace(e.PrimaryMuscleGroup),
			encodeStrings(e.SecondaryMuscleGroups),
			sets,
			encodeMetricDefs(metrics),
			i,
			ts, ts,
		)
		if err != nil {
			return wrapErr("insert template exercise", err)
		}
	}
	return nil
}

func listTemplateExercises(ctx context.Context, q queryer, templateID int64) ([]models.TemplateExercise, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+templateExerciseColumns+` FROM template_exercises WHERE workout_template_id = ? ORDER BY position, id`,
		templateID,
	)
	if err != nil {
		return nil, fmt.Errorf("list template exercises: %w", err)
	}
	defer rows.Close()

	var exercises []models.TemplateExercise
	for rows.Next() {
		var e models.TemplateExercise
		var secondary, metrics, createdAt, updatedAt string
		err := rows.Scan(&e.ID, &e.TemplateID, &e.ExerciseName, &e.PrimaryMuscleGroup,
			&secondary, &e.Sets, &metrics, &e.Position, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan template exercise: %w", err)
		}
		e.SecondaryMuscleGroups = decodeStrings(secondary)
		e.Metrics = decodeMetricDefs(metrics)
		e.CreatedAt = parseTime(createdAt)
		e.UpdatedAt = parseTime(updatedAt)
		exercises = append(exercises, e)
	}
	return exercises, rows.Err()
}

// rowExists checks for a row by primary key. table is always a constant.
func rowExists(ctx context.Context, q queryer, table string, id int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE id = ?", id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check %s %d: %w", table, id, err)
	}
	return n > 0, nil
}
