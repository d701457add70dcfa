// ABOUTME: Workout template, session, set, and app-state models.
// ABOUTME: Sessions snapshot their template's exercises at start time.
package models

import (
	"strings"
	"time"
)

// DefaultPlannedSets is used when a template exercise doesn't specify a set count.
const DefaultPlannedSets = 3

// Template is a reusable workout definition.
type Template struct {
	ID        int64              `json:"id" yaml:"id"`
	UserID    string             `json:"user_id" yaml:"user_id"`
	Name      string             `json:"name" yaml:"name"`
	CreatedAt time.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" yaml:"updated_at"`
	Exercises []TemplateExercise `json:"exercises,omitempty" yaml:"exercises,omitempty"` // Populated when fetching full template
}

// TemplateExercise is a planned exercise inside a template.
type TemplateExercise struct {
	ID                    int64              `json:"id" yaml:"id"`
	TemplateID            int64              `json:"template_id" yaml:"template_id"`
	ExerciseName          string             `json:"exercise_name" yaml:"exercise_name"`
	PrimaryMuscleGroup    string             `json:"primary_muscle_group,omitempty" yaml:"primary_muscle_group,omitempty"`
	SecondaryMuscleGroups []string           `json:"secondary_muscle_groups,omitempty" yaml:"secondary_muscle_groups,omitempty"`
	Sets                  int                `json:"sets" yaml:"sets"`
	Metrics               []MetricDefinition `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Position              int                `json:"position" yaml:"position"`
	CreatedAt             time.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at" yaml:"updated_at"`
}

// NewTemplateExercise creates a TemplateExercise with default sets and metrics.
func NewTemplateExercise(name string) TemplateExercise {
	return TemplateExercise{
		ExerciseName: name,
		Sets:         DefaultPlannedSets,
		Metrics:      DefaultMetricDefinitions(),
	}
}

// WithSets sets the planned set count.
func (e TemplateExercise) WithSets(sets int) TemplateExercise {
	e.Sets = sets
	return e
}

// WithMuscles sets the primary and secondary muscle groups.
func (e TemplateExercise) WithMuscles(primary string, secondary ...string) TemplateExercise {
	e.PrimaryMuscleGroup = primary
	e.SecondaryMuscleGroups = secondary
	return e
}

// TemplatePatch describes a partial template update. Nil fields are left untouched.
// A non-nil Exercises replaces the template's whole exercise list.
type TemplatePatch struct {
	Name      *string
	Exercises *[]TemplateExercise
}

// Session is one performed instance of a template.
type Session struct {
	ID              int64             `json:"id" yaml:"id"`
	TemplateID      *int64            `json:"template_id,omitempty" yaml:"template_id,omitempty"`
	TemplateName    string            `json:"template_name" yaml:"template_name"`
	UserID          string            `json:"user_id" yaml:"user_id"`
	SessionDate     time.Time         `json:"session_date" yaml:"session_date"`
	EndedAt         *time.Time        `json:"ended_at,omitempty" yaml:"ended_at,omitempty"`
	DurationMinutes *int              `json:"duration_minutes,omitempty" yaml:"duration_minutes,omitempty"`
	CreatedAt       time.Time         `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" yaml:"updated_at"`
	Exercises       []SessionExercise `json:"exercises,omitempty" yaml:"exercises,omitempty"` // Populated by GetSessionDetail
}

// WithDuration sets the duration in minutes.
func (s *Session) WithDuration(minutes int) *Session {
	s.DurationMinutes = &minutes
	return s
}

// IsFinished reports whether the workout was ended.
func (s *Session) IsFinished() bool {
	return s.EndedAt != nil
}

// SetCount returns the number of recorded sets across all exercises.
func (s *Session) SetCount() int {
	n := 0
	for _, e := range s.Exercises {
		n += len(e.Sets)
	}
	return n
}

// SessionFilter narrows ListSessions. Zero values mean no constraint.
type SessionFilter struct {
	TemplateName *string    // case-insensitive match on the snapshotted name
	From         *time.Time // inclusive
	To           *time.Time // inclusive
	Limit        int        // newest first when set
}

// EndOfDay returns the last second of t's UTC day. A To bound given as a bare
// date goes through it so the whole day stays in range.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 23, 59, 59, 0, time.UTC)
}

// IsDateOnly reports whether s is a bare YYYY-MM-DD date.
func IsDateOnly(s string) bool {
	_, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	return err == nil
}

// SessionExercise is an exercise snapshot inside a session.
type SessionExercise struct {
	ID                    int64              `json:"id" yaml:"id"`
	SessionID             int64              `json:"session_id" yaml:"session_id"`
	ExerciseName          string             `json:"exercise_name" yaml:"exercise_name"`
	PrimaryMuscleGroup    string             `json:"primary_muscle_group,omitempty" yaml:"primary_muscle_group,omitempty"`
	SecondaryMuscleGroups []string           `json:"secondary_muscle_groups,omitempty" yaml:"secondary_muscle_groups,omitempty"`
	PlannedSets           int                `json:"planned_sets" yaml:"planned_sets"`
	Metrics               []MetricDefinition `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Position              int                `json:"position" yaml:"position"`
	CreatedAt             time.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at" yaml:"updated_at"`
	Sets                  []SessionSet       `json:"sets,omitempty" yaml:"sets,omitempty"`
}

// SessionSet is one completed set of a session exercise.
type SessionSet struct {
	ID                int64     `json:"id" yaml:"id"`
	SessionExerciseID int64     `json:"session_exercise_id" yaml:"session_exercise_id"`
	SetIndex          int       `json:"set_index" yaml:"set_index"`
	RepsOrTime        float64   `json:"reps_or_time" yaml:"reps_or_time"`
	Weight            float64   `json:"weight" yaml:"weight"`
	CustomMetrics     MetricBag `json:"custom_metrics,omitempty" yaml:"custom_metrics,omitempty"`
	// RawMetrics holds the stored text when it could not be decoded into CustomMetrics.
	RawMetrics string    `json:"raw_metrics,omitempty" yaml:"raw_metrics,omitempty"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
}

// MuscleVolume is the per-session rollup of sets worked per muscle.
type MuscleVolume struct {
	ID         int64     `json:"id" yaml:"id"`
	SessionID  int64     `json:"session_id" yaml:"session_id"`
	MuscleName string    `json:"muscle_name" yaml:"muscle_name"`
	TotalSets  int       `json:"total_sets" yaml:"total_sets"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
}

// AppState is the singleton row recording whether a workout is in progress.
type AppState struct {
	IsExercising     bool      `json:"is_exercising"`
	ActiveTemplateID *int64    `json:"active_template_id,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}
