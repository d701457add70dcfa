// ABOUTME: Export and import functionality for workout data.
// ABOUTME: Supports JSON, YAML, and Markdown export; JSON import remaps ids.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/gymlog/internal/analytics"
	"github.com/harperreed/gymlog/internal/models"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ExportData represents the full export format for workout data.
type ExportData struct {
	Version    string             `json:"version" yaml:"version"`
	ExportedAt time.Time          `json:"exported_at" yaml:"exported_at"`
	Tool       string             `json:"tool" yaml:"tool"`
	Templates  []*models.Template `json:"templates" yaml:"templates"`
	Sessions   []*models.Session  `json:"sessions" yaml:"sessions"`
}

// GetAllData retrieves all templates and fully materialized sessions.
func (d *DB) GetAllData(ctx context.Context) (*ExportData, error) {
	templates, err := d.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	sessions, err := d.ListSessionDetails(ctx, models.SessionFilter{})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return &ExportData{
		Version:    "1.0",
		ExportedAt: now(),
		Tool:       "gymlog",
		Templates:  templates,
		Sessions:   sessions,
	}, nil
}

// ImportData inserts an export in one transaction. Rows get new ids; session
// template references are remapped and dropped when the template isn't in the export.
func (d *DB) ImportData(ctx context.Context, data *ExportData) error {
	if err := d.checkReady(); err != nil {
		return err
	}
	if data == nil {
		return invalidInput("nothing to import")
	}

	err := d.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		templateIDs := make(map[int64]int64, len(data.Templates))
		for _, t := range data.Templates {
			newID, err := importTemplate(ctx, tx, t)
			if err != nil {
				return err
			}
			templateIDs[t.ID] = newID
		}

		for _, s := range data.Sessions {
			if err := importSession(ctx, tx, s, templateIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"templates": len(data.Templates),
		"sessions":  len(data.Sessions),
	}).Info("imported data")
	return nil
}

func importTemplate(ctx context.Context, tx *sql.Tx, t *models.Template) (int64, error) {
	if strings.TrimSpace(t.Name) == "" {
		return 0, invalidInput("template %d has no name", t.ID)
	}
	if err := validateExercises(t.Exercises); err != nil {
		return 0, err
	}

	created, updated := timestamps(t.CreatedAt, t.UpdatedAt)
	result, err := tx.ExecContext(ctx,
		`INSERT INTO workout_templates (user_id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		t.UserID, t.Name, created, updated,
	)
	if err != nil {
		return 0, wrapErr("import template", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("import template: %w", err)
	}
	if err := insertTemplateExercises(ctx, tx, id, t.Exercises, updated); err != nil {
		return 0, err
	}
	return id, nil
}

func importSession(ctx context.Context, tx *sql.Tx, s *models.Session, templateIDs map[int64]int64) error {
	var templateID any
	if s.TemplateID != nil {
		if id, ok := templateIDs[*s.TemplateID]; ok {
			templateID = id
		}
	}

	created, updated := timestamps(s.CreatedAt, s.UpdatedAt)
	date := s.SessionDate
	if date.IsZero() {
		date = s.CreatedAt
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO workout_sessions
			(workout_template_id, template_name, user_id, session_date, ended_at, duration_minutes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, templateID, s.TemplateName, s.UserID, formatTime(date), formatTimePtr(s.EndedAt), s.DurationMinutes, created, updated)
	if err != nil {
		return wrapErr("import session", err)
	}
	sessionID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("import session: %w", err)
	}

	for i, e := range s.Exercises {
		position := e.Position
		if position == 0 {
			position = i
		}
		result, err := tx.ExecContext(ctx, `
			INSERT INTO session_exercises
				(workout_session_id, exercise_name, primary_muscle_group, secondary_muscle_groups,
				 planned_sets, metrics, position, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			sessionID, e.ExerciseName, e.PrimaryMuscleGroup, encodeStrings(e.SecondaryMuscleGroups),
			e.PlannedSets, encodeMetricDefs(e.Metrics), position, created, updated,
		)
		if err != nil {
			return wrapErr("import session exercise", err)
		}
		exerciseID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("import session exercise: %w", err)
		}

		for j, set := range e.Sets {
			if err := importSet(ctx, tx, exerciseID, j+1, set); err != nil {
				return err
			}
		}
	}

	if s.IsFinished() {
		detail, err := loadSessionDetail(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if _, err := replaceMuscleVolume(ctx, tx, detail); err != nil {
			return err
		}
	}
	return nil
}

func importSet(ctx context.Context, tx *sql.Tx, exerciseID int64, fallbackIndex int, set models.SessionSet) error {
	index := set.SetIndex
	if index < 1 {
		index = fallbackIndex
	}

	// Keep undecodable bags verbatim rather than losing them.
	encoded := set.RawMetrics
	if encoded == "" {
		var err error
		if encoded, err = set.CustomMetrics.Encode(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}

	created, updated := timestamps(set.CreatedAt, set.UpdatedAt)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO session_sets
			(session_exercise_id, set_index, reps_or_time, weight, custom_metrics, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, exerciseID, index, set.RepsOrTime, set.Weight, encoded, created, updated)
	if err != nil {
		return wrapErr("import set", err)
	}
	return nil
}

// timestamps formats imported created/updated times, filling blanks with now.
func timestamps(created, updated time.Time) (string, string) {
	if created.IsZero() {
		created = now()
	}
	if updated.IsZero() {
		updated = created
	}
	return formatTime(created), formatTime(updated)
}

// ImportJSON imports data from JSON bytes.
func (d *DB) ImportJSON(ctx context.Context, data []byte) error {
	var exportData ExportData
	if err := json.Unmarshal(data, &exportData); err != nil {
		return fmt.Errorf("unmarshal JSON: %w", err)
	}
	return d.ImportData(ctx, &exportData)
}

// ExportJSON exports all data as JSON.
func (d *DB) ExportJSON(ctx context.Context) ([]byte, error) {
	data, err := d.GetAllData(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ExportYAML exports all data as compact, human-oriented YAML.
func (d *DB) ExportYAML(ctx context.Context) ([]byte, error) {
	data, err := d.GetAllData(ctx)
	if err != nil {
		return nil, err
	}

	yamlData := struct {
		Version    string         `yaml:"version"`
		ExportedAt string         `yaml:"exported_at"`
		Tool       string         `yaml:"tool"`
		Templates  []yamlTemplate `yaml:"templates"`
		Sessions   []yamlSession  `yaml:"sessions"`
	}{
		Version:    data.Version,
		ExportedAt: data.ExportedAt.Format(time.RFC3339),
		Tool:       data.Tool,
		Templates:  make([]yamlTemplate, 0, len(data.Templates)),
		Sessions:   make([]yamlSession, 0, len(data.Sessions)),
	}

	for _, t := range data.Templates {
		yt := yamlTemplate{ID: t.ID, Name: t.Name}
		for _, e := range t.Exercises {
			yt.Exercises = append(yt.Exercises, yamlTemplateExercise{
				Name:      e.ExerciseName,
				Sets:      e.Sets,
				Primary:   e.PrimaryMuscleGroup,
				Secondary: e.SecondaryMuscleGroups,
			})
		}
		yamlData.Templates = append(yamlData.Templates, yt)
	}

	for _, s := range data.Sessions {
		ys := yamlSession{
			ID:       s.ID,
			Template: s.TemplateName,
			Date:     s.SessionDate.Format(time.RFC3339),
		}
		if s.DurationMinutes != nil {
			ys.DurationMinutes = *s.DurationMinutes
		}
		for _, e := range s.Exercises {
			ye := yamlSessionExercise{Name: e.ExerciseName, Planned: e.PlannedSets}
			for _, set := range e.Sets {
				ye.Sets = append(ye.Sets, yamlSet{
					Index:   set.SetIndex,
					Weight:  set.Weight,
					Reps:    set.RepsOrTime,
					Metrics: map[string]any(set.CustomMetrics),
				})
			}
			ys.Exercises = append(ys.Exercises, ye)
		}
		yamlData.Sessions = append(yamlData.Sessions, ys)
	}

	return yaml.Marshal(yamlData)
}

type yamlTemplate struct {
	ID        int64                  `yaml:"id"`
	Name      string                 `yaml:"name"`
	Exercises []yamlTemplateExercise `yaml:"exercises,omitempty"`
}

type yamlTemplateExercise struct {
	Name      string   `yaml:"name"`
	Sets      int      `yaml:"sets"`
	Primary   string   `yaml:"primary,omitempty"`
	Secondary []string `yaml:"secondary,omitempty"`
}

type yamlSession struct {
	ID              int64                 `yaml:"id"`
	Template        string                `yaml:"template"`
	Date            string                `yaml:"date"`
	DurationMinutes int                   `yaml:"duration_minutes,omitempty"`
	Exercises       []yamlSessionExercise `yaml:"exercises,omitempty"`
}

type yamlSessionExercise struct {
	Name    string    `yaml:"name"`
	Planned int       `yaml:"planned"`
	Sets    []yamlSet `yaml:"sets,omitempty"`
}

type yamlSet struct {
	Index   int            `yaml:"index"`
	Weight  float64        `yaml:"weight"`
	Reps    float64        `yaml:"reps_or_time"`
	Metrics map[string]any `yaml:"metrics,omitempty"`
}

// ExportMarkdown renders sessions as a Markdown log, newest first.
func (d *DB) ExportMarkdown(ctx context.Context, since *time.Time) (string, error) {
	sessions, err := d.ListSessionDetails(ctx, models.SessionFilter{From: since})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	generated := now()

	sb.WriteString(fmt.Sprintf("# Workout Log - %s\n\n", generated.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", generated.Format(time.RFC3339)))

	if len(sessions) == 0 {
		sb.WriteString("No sessions recorded.\n")
		return sb.String(), nil
	}

	for _, s := range sessions {
		sb.WriteString(fmt.Sprintf("## %s - %s\n\n", s.SessionDate.Format("2006-01-02 15:04"), s.TemplateName))
		if s.DurationMinutes != nil {
			sb.WriteString(fmt.Sprintf("Duration: %d min\n\n", *s.DurationMinutes))
		}
		sb.WriteString("| Exercise | Set | Weight | Reps/Time |\n")
		sb.WriteString("|----------|-----|--------|-----------|\n")
		for _, e := range s.Exercises {
			if len(e.Sets) == 0 {
				sb.WriteString(fmt.Sprintf("| %s | - | - | - |\n", e.ExerciseName))
				continue
			}
			var weight, reps float64
			for _, set := range e.Sets {
				sb.WriteString(fmt.Sprintf("| %s | %d | %.1f | %.1f |\n",
					e.ExerciseName, set.SetIndex, set.Weight, set.RepsOrTime))
				load := analytics.ExtractSetLoad(set)
				weight += load.Weight
				reps += load.Reps
			}
			// timed-only exercises have no load to average
			if weight > 0 || reps > 0 {
				n := float64(len(e.Sets))
				sb.WriteString(fmt.Sprintf("| %s | avg | %.1f | %.1f |\n", e.ExerciseName, weight/n, reps/n))
			}
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
