// ABOUTME: Tests for export and import functionality.
// ABOUTME: Verifies JSON, YAML, and Markdown export and JSON round trips.
package storage

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/gymlog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func seedExportData(t *testing.T, db *DB) *models.Session {
	t.Helper()
	ctx := context.Background()

	tmpl := legDay(t, db)
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	session, err := db.StartSession(ctx, tmpl.ID, start)
	require.NoError(t, err)

	_, err = db.RecordSet(ctx, session.Exercises[0].ID, 1, models.MetricBag{"weight": 100, "reps": 5})
	require.NoError(t, err)
	_, err = db.RecordSet(ctx, session.Exercises[0].ID, 2, models.MetricBag{"weight": "80", "reps": 8})
	require.NoError(t, err)

	finished, err := db.FinishSession(ctx, session.ID, start.Add(45*time.Minute))
	require.NoError(t, err)
	return finished
}

func TestExportJSON(t *testing.T) {
	db := setupTestDB(t)
	seedExportData(t, db)

	data, err := db.ExportJSON(context.Background())
	require.NoError(t, err)

	var export ExportData
	require.NoError(t, json.Unmarshal(data, &export))
	assert.Equal(t, "1.0", export.Version)
	assert.Equal(t, "gymlog", export.Tool)
	require.Len(t, export.Templates, 1)
	assert.Len(t, export.Templates[0].Exercises, 2)
	require.Len(t, export.Sessions, 1)
	require.Len(t, export.Sessions[0].Exercises, 2)
	assert.Len(t, export.Sessions[0].Exercises[0].Sets, 2)
}

func TestImportJSONRoundTrip(t *testing.T) {
	src := setupTestDB(t)
	original := seedExportData(t, src)
	ctx := context.Background()

	data, err := src.ExportJSON(ctx)
	require.NoError(t, err)

	dst := setupTestDB(t)
	// occupy the first ids so imported rows can't keep theirs
	_, err = dst.CreateTemplate(ctx, "other", "Existing", []models.TemplateExercise{models.NewTemplateExercise("Curl")})
	require.NoError(t, err)

	require.NoError(t, dst.ImportJSON(ctx, data))

	templates, err := dst.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 2)

	var imported *models.Template
	for _, tmpl := range templates {
		if tmpl.Name == "Leg Day" {
			imported = tmpl
		}
	}
	require.NotNil(t, imported)

	sessions, err := dst.ListSessionDetails(ctx, models.SessionFilter{})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	got := sessions[0]

	require.NotNil(t, got.TemplateID)
	assert.Equal(t, imported.ID, *got.TemplateID, "template reference remapped")
	assert.Equal(t, original.SessionDate, got.SessionDate)
	require.NotNil(t, got.DurationMinutes)
	assert.Equal(t, 45, *got.DurationMinutes)
	require.Len(t, got.Exercises, 2)
	require.Len(t, got.Exercises[0].Sets, 2)
	assert.Equal(t, 2, got.Exercises[0].Sets[1].SetIndex)
	assert.Equal(t, "80", got.Exercises[0].Sets[1].CustomMetrics["weight"])

	volumes, err := dst.ListMuscleVolume(ctx, got.ID)
	require.NoError(t, err)
	assert.Len(t, volumes, 2, "rollup rebuilt for finished sessions")
}

func TestImportDropsUnknownTemplateReference(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	orphanTemplate := int64(77)
	data := &ExportData{
		Sessions: []*models.Session{{
			TemplateID:   &orphanTemplate,
			TemplateName: "Gone",
			SessionDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Exercises: []models.SessionExercise{{
				ExerciseName: "Row",
				PlannedSets:  3,
				Sets:         []models.SessionSet{{CustomMetrics: models.MetricBag{"reps": 10}}},
			}},
		}},
	}
	require.NoError(t, db.ImportData(ctx, data))

	sessions, err := db.ListSessionDetails(ctx, models.SessionFilter{})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Nil(t, sessions[0].TemplateID)
	require.Len(t, sessions[0].Exercises[0].Sets, 1)
	assert.Equal(t, 1, sessions[0].Exercises[0].Sets[0].SetIndex)
}

func TestImportIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	data := &ExportData{
		Templates: []*models.Template{
			{ID: 1, Name: "Fine"},
			{ID: 2, Name: ""},
		},
	}
	assert.ErrorIs(t, db.ImportData(ctx, data), ErrInvalidInput)
	assert.Zero(t, countRows(t, db, "workout_templates"))
}

func TestExportMarkdownTimedSetsHaveNoAverage(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	tmpl, err := db.CreateTemplate(ctx, "user-1", "Core", []models.TemplateExercise{
		{ExerciseName: "Plank", Sets: 2, Metrics: []models.MetricDefinition{{Name: models.MetricTime}}},
	})
	require.NoError(t, err)
	session, err := db.StartSession(ctx, tmpl.ID, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = db.RecordSet(ctx, session.Exercises[0].ID, 1, models.MetricBag{"time": 40})
	require.NoError(t, err)

	md, err := db.ExportMarkdown(ctx, nil)
	require.NoError(t, err)
	assert.Contains(t, md, "| Plank | 1 | 0.0 | 40.0 |")
	assert.NotContains(t, md, "| Plank | avg |")
}

func TestExportYAML(t *testing.T) {
	db := setupTestDB(t)
	seedExportData(t, db)

	data, err := db.ExportYAML(context.Background())
	require.NoError(t, err)

	var yamlData map[string]any
	require.NoError(t, yaml.Unmarshal(data, &yamlData))
	assert.Equal(t, "1.0", yamlData["version"])
	assert.Equal(t, "gymlog", yamlData["tool"])

	sessions, ok := yamlData["sessions"].([]any)
	require.True(t, ok)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Leg Day", sessions[0].(map[string]any)["template"])
}

func TestExportMarkdown(t *testing.T) {
	db := setupTestDB(t)
	seedExportData(t, db)
	ctx := context.Background()

	md, err := db.ExportMarkdown(ctx, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(md, "# Workout Log - "))
	assert.Contains(t, md, "## 2024-06-01 09:00 - Leg Day")
	assert.Contains(t, md, "Duration: 45 min")
	assert.Contains(t, md, "| Squat | 2 | 80.0 | 8.0 |")
	// averages come from the normalized bag, so the "80" string counts
	assert.Contains(t, md, "| Squat | avg | 90.0 | 6.5 |")
	assert.Contains(t, md, "| Lunge | - | - | - |")
	assert.NotContains(t, md, "| Lunge | avg |")

	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	md, err = db.ExportMarkdown(ctx, &since)
	require.NoError(t, err)
	assert.Contains(t, md, "No sessions recorded.")
}
