// ABOUTME: Tests for the SQLite Repository implementation.
// ABOUTME: Verifies template, session, set, rollup, and app-state operations.
package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/gymlog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "gymlog.db"))
	require.NoError(t, err, "open database")
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func countRows(t *testing.T, db *DB, table string) int {
	t.Helper()

	var n int
	err := db.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n)
	require.NoError(t, err, "count %s", table)
	return n
}

func legDay(t *testing.T, db *DB) *models.Template {
	t.Helper()

	tmpl, err := db.CreateTemplate(context.Background(), "user-1", "Leg Day", []models.TemplateExercise{
		models.NewTemplateExercise("Squat").WithMuscles("quads", "glutes"),
		models.NewTemplateExercise("Lunge").WithSets(2).WithMuscles("glutes"),
	})
	require.NoError(t, err, "create template")
	return tmpl
}

func TestCreateAndGetTemplate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	tmpl := legDay(t, db)
	assert.NotZero(t, tmpl.ID)
	assert.Equal(t, "user-1", tmpl.UserID)
	assert.False(t, tmpl.CreatedAt.IsZero())

	got, err := db.GetTemplate(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Leg Day", got.Name)
	require.Len(t, got.Exercises, 2)

	squat := got.Exercises[0]
	assert.Equal(t, "Squat", squat.ExerciseName)
	assert.Equal(t, "quads", squat.PrimaryMuscleGroup)
	assert.Equal(t, []string{"glutes"}, squat.SecondaryMuscleGroups)
	assert.Equal(t, models.DefaultPlannedSets, squat.Sets)
	assert.Equal(t, models.DefaultMetricDefinitions(), squat.Metrics)
	assert.Equal(t, 0, squat.Position)

	assert.Equal(t, "Lunge", got.Exercises[1].ExerciseName)
	assert.Equal(t, 2, got.Exercises[1].Sets)
	assert.Equal(t, 1, got.Exercises[1].Position)
}

func TestCreateTemplateValidation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.CreateTemplate(ctx, "u", "  ", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = db.CreateTemplate(ctx, "u", "Empty exercise", []models.TemplateExercise{{ExerciseName: ""}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Zero(t, countRows(t, db, "workout_templates"))
}

func TestListTemplates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.CreateTemplate(ctx, "u", "push", []models.TemplateExercise{models.NewTemplateExercise("Bench")})
	require.NoError(t, err)
	legDay(t, db)

	list, err := db.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Leg Day", list[0].Name)
	assert.Len(t, list[0].Exercises, 2)
	assert.Equal(t, "push", list[1].Name)
	assert.Len(t, list[1].Exercises, 1)
}

func TestUpdateTemplate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tmpl := legDay(t, db)

	name := "Lower Body"
	got, err := db.UpdateTemplate(ctx, tmpl.ID, models.TemplatePatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Lower Body", got.Name)
	assert.Len(t, got.Exercises, 2, "exercises untouched by a name patch")

	exercises := []models.TemplateExercise{models.NewTemplateExercise("Deadlift").WithSets(5)}
	got, err = db.UpdateTemplate(ctx, tmpl.ID, models.TemplatePatch{Exercises: &exercises})
	require.NoError(t, err)
	require.Len(t, got.Exercises, 1)
	assert.Equal(t, "Deadlift", got.Exercises[0].ExerciseName)
	assert.Equal(t, 5, got.Exercises[0].Sets)
	assert.Equal(t, 1, countRows(t, db, "template_exercises"))

	_, err = db.UpdateTemplate(ctx, 9999, models.TemplatePatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	blank := ""
	_, err = db.UpdateTemplate(ctx, tmpl.ID, models.TemplatePatch{Name: &blank})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteTemplateCascadesExercises(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tmpl := legDay(t, db)

	require.NoError(t, db.DeleteTemplate(ctx, tmpl.ID))
	assert.Zero(t, countRows(t, db, "template_exercises"))

	_, err := db.GetTemplate(ctx, tmpl.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.DeleteTemplate(ctx, tmpl.ID), ErrNotFound)
}

func TestDeleteTemplateKeepsSessionSnapshots(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tmpl := legDay(t, db)

	session, err := db.StartSession(ctx, tmpl.ID, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = db.RecordSet(ctx, session.Exercises[0].ID, 1, models.MetricBag{"weight": 100, "reps": 5})
	require.NoError(t, err)

	require.NoError(t, db.DeleteTemplate(ctx, tmpl.ID))

	got, err := db.GetSessionDetail(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TemplateID)
	assert.Equal(t, "Leg Day", got.TemplateName)
	require.Len(t, got.Exercises, 2)
	require.Len(t, got.Exercises[0].Sets, 1)
	assert.Equal(t, 100.0, got.Exercises[0].Sets[0].Weight)
}

func TestDeleteActiveTemplateRejected(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tmpl := legDay(t, db)

	require.NoError(t, db.SetExercisingState(ctx, true, &tmpl.ID))
	assert.ErrorIs(t, db.DeleteTemplate(ctx, tmpl.ID), ErrConstraintViolation)

	require.NoError(t, db.SetExercisingState(ctx, false, nil))
	assert.NoError(t, db.DeleteTemplate(ctx, tmpl.ID))
}

func TestStartSessionSnapshotsTemplate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tmpl := legDay(t, db)
	date := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	session, err := db.StartSession(ctx, tmpl.ID, date)
	require.NoError(t, err)
	assert.Equal(t, date, session.SessionDate)
	require.NotNil(t, session.TemplateID)
	assert.Equal(t, tmpl.ID, *session.TemplateID)
	assert.Equal(t, "user-1", session.UserID)
	assert.False(t, session.IsFinished())
	require.Len(t, session.Exercises, 2)
	assert.Equal(t, 3, session.Exercises[0].PlannedSets)
	assert.Equal(t, 2, session.Exercises[1].PlannedSets)
	assert.Equal(t, "quads", session.Exercises[0].PrimaryMuscleGroup)

	// editing the template leaves the session as it was
	exercises := []models.TemplateExercise{models.NewTemplateExercise("Leg Press").WithSets(6)}
	name := "Renamed"
	_, err = db.UpdateTemplate(ctx, tmpl.ID, models.TemplatePatch{Name: &name, Exercises: &exercises})
	require.NoError(t, err)

	got, err := db.GetSessionDetail(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Leg Day", got.TemplateName)
	require.Len(t, got.Exercises, 2)
	assert.Equal(t, "Squat", got.Exercises[0].ExerciseName)
	assert.Equal(t, 3, got.Exercises[0].PlannedSets)
}

func TestStartSessionUnknownTemplate(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.StartSession(context.Background(), 4242, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, countRows(t, db, "workout_sessions"))
}

func TestRecordSetUpsert(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tmpl := legDay(t, db)

	session, err := db.StartSession(ctx, tmpl.ID, time.Now())
	require.NoError(t, err)
	seID := session.Exercises[0].ID

	first, err := db.RecordSet(ctx, seID, 1, models.MetricBag{"weight": 100, "reps": 5})
	require.NoError(t, err)
	second, err := db.RecordSet(ctx, seID, 1, models.MetricBag{"Weight": "105", "reps": 4})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, countRows(t, db, "session_sets"))

	got, err := db.GetSessionDetail(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, got.Exercises[0].Sets, 1)
	set := got.Exercises[0].Sets[0]
	assert.Equal(t, 1, set.SetIndex)
	assert.Equal(t, 105.0, set.Weight)
	assert.Equal(t, 4.0, set.RepsOrTime)
	assert.Equal(t, "105", set.CustomMetrics["Weight"])
}

func TestRecordSetTimed(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	tmpl, err := db.CreateTemplate(ctx, "u", "Core", []models.TemplateExercise{
		{ExerciseName: "Plank", Metrics: []models.MetricDefinition{{Name: models.MetricTime, Unit: "s"}}},
	})
	require.NoError(t, err)
	session, err := db.StartSession(ctx, tmpl.ID, time.Now())
	require.NoError(t, err)

	set, err := db.RecordSet(ctx, session.Exercises[0].ID, 1, models.MetricBag{"time": 90})
	require.NoError(t, err)
	assert.Equal(t, 90.0, set.RepsOrTime)
	assert.Zero(t, set.Weight)
}

func TestRecordSetErrors(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.RecordSet(ctx, 777, 1, models.MetricBag{"reps": 5})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.RecordSet(ctx, 777, 0, models.MetricBag{"reps": 5})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Zero(t, countRows(t, db, "session_sets"))
}

func TestDeleteSet(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tmpl := legDay(t, db)

	session, err := db.StartSession(ctx, tmpl.ID, time.Now())
	require.NoError(t, err)
	seID := session.Exercises[0].ID

	_, err = db.RecordSet(ctx, seID, 1, models.MetricBag{"reps": 5})
	require.NoError(t, err)
	_, err = db.RecordSet(ctx, seID, 2, models.MetricBag{"reps": 5})
	require.NoError(t, err)

	require.NoError(t, db.DeleteSet(ctx, seID, 1))
	assert.Equal(t, 1, countRows(t, db, "session_sets"))
	assert.ErrorIs(t, db.DeleteSet(ctx, seID, 1), ErrNotFound)
}

func TestMalformedMetricsStillLoad(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tmpl := legDay(t, db)

	session, err := db.StartSession(ctx, tmpl.ID, time.Now())
	require.NoError(t, err)
	set, err := db.RecordSet(ctx, session.Exercises[0].ID, 1, models.MetricBag{"weight": 80, "reps": 8})
	require.NoError(t, err)

	_, err = db.db.ExecContext(ctx, `UPDATE session_sets SET custom_metrics = '{broken' WHERE id = ?`, set.ID)
	require.NoError(t, err)

	got, err := db.GetSessionDetail(ctx, session.ID)
	require.NoError(t, err)
	loaded := got.Exercises[0].Sets[0]
	assert.Equal(t, "{broken", loaded.RawMetrics)
	assert.Nil(t, loaded.CustomMetrics)
	assert.Equal(t, 80.0, loaded.Weight)
}

func TestListSessionsFilter(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	legs := legDay(t, db)
	push, err := db.CreateTemplate(ctx, "u", "Push", []models.TemplateExercise{models.NewTemplateExercise("Bench")})
	require.NoError(t, err)

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := db.StartSession(ctx, legs.ID, base.AddDate(0, 0, 7*i))
		require.NoError(t, err)
	}
	_, err = db.StartSession(ctx, push.ID, base.AddDate(0, 0, 1))
	require.NoError(t, err)

	all, err := db.ListSessions(ctx, models.SessionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, base.AddDate(0, 0, 14), all[0].SessionDate, "newest first")
	assert.Empty(t, all[0].Exercises, "list doesn't load children")

	name := "leg day"
	legsOnly, err := db.ListSessions(ctx, models.SessionFilter{TemplateName: &name})
	require.NoError(t, err)
	assert.Len(t, legsOnly, 3)

	from := base.AddDate(0, 0, 1)
	to := base.AddDate(0, 0, 7)
	ranged, err := db.ListSessions(ctx, models.SessionFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	assert.Equal(t, "Leg Day", ranged[0].TemplateName)
	assert.Equal(t, "Push", ranged[1].TemplateName)

	limited, err := db.ListSessionDetails(ctx, models.SessionFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Len(t, limited[0].Exercises, 2)
}

func TestFinishSessionRollsUpMuscles(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tmpl := legDay(t, db)
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	session, err := db.StartSession(ctx, tmpl.ID, start)
	require.NoError(t, err)
	squat, lunge := session.Exercises[0].ID, session.Exercises[1].ID

	for i := 1; i <= 3; i++ {
		_, err := db.RecordSet(ctx, squat, i, models.MetricBag{"weight": 100, "reps": 5})
		require.NoError(t, err)
	}
	_, err = db.RecordSet(ctx, lunge, 1, models.MetricBag{"weight": 20, "reps": 10})
	require.NoError(t, err)

	finished, err := db.FinishSession(ctx, session.ID, start.Add(62*time.Minute))
	require.NoError(t, err)
	assert.True(t, finished.IsFinished())
	require.NotNil(t, finished.DurationMinutes)
	assert.Equal(t, 62, *finished.DurationMinutes)

	volumes, err := db.ListMuscleVolume(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, volumes, 2)
	assert.Equal(t, "glutes", volumes[0].MuscleName)
	assert.Equal(t, 4, volumes[0].TotalSets)
	assert.Equal(t, "quads", volumes[1].MuscleName)
	assert.Equal(t, 3, volumes[1].TotalSets)

	// a correction after the workout ended, then a refresh
	require.NoError(t, db.DeleteSet(ctx, squat, 3))
	volumes, err = db.RefreshMuscleVolume(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, volumes, 2)
	assert.Equal(t, 2, volumes[1].TotalSets)
	assert.Equal(t, 2, countRows(t, db, "session_muscle_volume"))

	_, err = db.FinishSession(ctx, 9999, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.ListMuscleVolume(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteSessionCascades(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tmpl := legDay(t, db)

	session, err := db.StartSession(ctx, tmpl.ID, time.Now())
	require.NoError(t, err)
	_, err = db.RecordSet(ctx, session.Exercises[0].ID, 1, models.MetricBag{"reps": 5})
	require.NoError(t, err)
	_, err = db.FinishSession(ctx, session.ID, time.Now())
	require.NoError(t, err)

	require.NoError(t, db.DeleteSession(ctx, session.ID))
	assert.Zero(t, countRows(t, db, "session_exercises"))
	assert.Zero(t, countRows(t, db, "session_sets"))
	assert.Zero(t, countRows(t, db, "session_muscle_volume"))
	assert.Equal(t, 2, countRows(t, db, "template_exercises"))

	assert.ErrorIs(t, db.DeleteSession(ctx, session.ID), ErrNotFound)
}

func TestExercisingState(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tmpl := legDay(t, db)

	st, err := db.GetExercisingState(ctx)
	require.NoError(t, err)
	assert.False(t, st.IsExercising)

	require.NoError(t, db.SetExercisingState(ctx, true, &tmpl.ID))
	st, err = db.GetExercisingState(ctx)
	require.NoError(t, err)
	assert.True(t, st.IsExercising)
	require.NotNil(t, st.ActiveTemplateID)
	assert.Equal(t, tmpl.ID, *st.ActiveTemplateID)

	// idle never keeps a template reference
	require.NoError(t, db.SetExercisingState(ctx, false, &tmpl.ID))
	st, err = db.GetExercisingState(ctx)
	require.NoError(t, err)
	assert.False(t, st.IsExercising)
	assert.Nil(t, st.ActiveTemplateID)

	missing := int64(9999)
	assert.ErrorIs(t, db.SetExercisingState(ctx, true, &missing), ErrNotFound)
	assert.Equal(t, 1, countRows(t, db, "app_state"))
}

func TestDeleteAllData(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tmpl := legDay(t, db)

	session, err := db.StartSession(ctx, tmpl.ID, time.Now())
	require.NoError(t, err)
	_, err = db.RecordSet(ctx, session.Exercises[0].ID, 1, models.MetricBag{"reps": 5})
	require.NoError(t, err)
	_, err = db.FinishSession(ctx, session.ID, time.Now())
	require.NoError(t, err)
	require.NoError(t, db.SetExercisingState(ctx, true, &tmpl.ID))

	require.NoError(t, db.DeleteAllData(ctx))

	for _, table := range userTables {
		assert.Zero(t, countRows(t, db, table), table)
	}
	assert.Equal(t, 1, countRows(t, db, "app_state"))
	assert.Equal(t, len(registeredMigrations), countRows(t, db, "migrations"))

	st, err := db.GetExercisingState(ctx)
	require.NoError(t, err)
	assert.False(t, st.IsExercising)
	assert.Nil(t, st.ActiveTemplateID)
}

func TestDuplicateSetIndexIsConstraintViolation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tmpl := legDay(t, db)

	session, err := db.StartSession(ctx, tmpl.ID, time.Now())
	require.NoError(t, err)
	seID := session.Exercises[0].ID
	_, err = db.RecordSet(ctx, seID, 1, models.MetricBag{"reps": 5})
	require.NoError(t, err)

	_, err = db.db.ExecContext(ctx, `
		INSERT INTO session_sets (session_exercise_id, set_index, created_at, updated_at)
		VALUES (?, 1, '', '')`, seID)
	require.Error(t, err)
	assert.ErrorIs(t, wrapErr("insert set", err), ErrConstraintViolation)
}
