// ABOUTME: Repository interface for workout data storage.
// ABOUTME: Defines the contract for templates, sessions, sets, rollups, and app state.
package storage

import (
	"context"
	"time"

	"github.com/harperreed/gymlog/internal/models"
)

// Repository defines the storage interface for workout data.
// This interface allows swapping implementations (e.g., for testing).
type Repository interface {
	// Template operations
	CreateTemplate(ctx context.Context, userID, name string, exercises []models.TemplateExercise) (*models.Template, error)
	UpdateTemplate(ctx context.Context, id int64, patch models.TemplatePatch) (*models.Template, error)
	DeleteTemplate(ctx context.Context, id int64) error
	GetTemplate(ctx context.Context, id int64) (*models.Template, error)
	ListTemplates(ctx context.Context) ([]*models.Template, error)

	// Session operations
	StartSession(ctx context.Context, templateID int64, date time.Time) (*models.Session, error)
	FinishSession(ctx context.Context, sessionID int64, endedAt time.Time) (*models.Session, error)
	ListSessions(ctx context.Context, filter models.SessionFilter) ([]*models.Session, error)
	GetSessionDetail(ctx context.Context, sessionID int64) (*models.Session, error)
	ListSessionDetails(ctx context.Context, filter models.SessionFilter) ([]*models.Session, error)
	DeleteSession(ctx context.Context, sessionID int64) error

	// Set operations
	RecordSet(ctx context.Context, sessionExerciseID int64, setIndex int, metrics models.MetricBag) (*models.SessionSet, error)
	DeleteSet(ctx context.Context, sessionExerciseID int64, setIndex int) error

	// Muscle volume rollup
	RefreshMuscleVolume(ctx context.Context, sessionID int64) ([]models.MuscleVolume, error)
	ListMuscleVolume(ctx context.Context, sessionID int64) ([]models.MuscleVolume, error)

	// App state
	GetExercisingState(ctx context.Context) (*models.AppState, error)
	SetExercisingState(ctx context.Context, isExercising bool, activeTemplateID *int64) error

	// Export/Import
	GetAllData(ctx context.Context) (*ExportData, error)
	ImportData(ctx context.Context, data *ExportData) error

	// Lifecycle
	DeleteAllData(ctx context.Context) error
	AppliedMigrations(ctx context.Context) ([]AppliedMigration, error)
	Close() error
}
