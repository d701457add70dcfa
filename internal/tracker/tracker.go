// ABOUTME: Idle/Exercising state machine over the app_state singleton.
// ABOUTME: Starting a workout opens a session; stopping finishes it and clears the template.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/gymlog/internal/models"
	"github.com/harperreed/gymlog/internal/storage"
	log "github.com/sirupsen/logrus"
)

var (
	ErrAlreadyExercising = errors.New("a workout is already in progress")
	ErrNotExercising     = errors.New("no workout in progress")
	ErrInvalidTemplate   = errors.New("invalid template")
	// ErrSessionNotActive means the session is finished or belongs to another workout.
	ErrSessionNotActive = errors.New("session is not the active workout")
)

// Status is the tracker state.
type Status string

const (
	Idle       Status = "idle"
	Exercising Status = "exercising"
)

// State is the current status and, while exercising, the active template.
type State struct {
	Status     Status    `json:"status"`
	TemplateID *int64    `json:"template_id,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// store is the part of the repository the tracker needs.
type store interface {
	GetTemplate(ctx context.Context, id int64) (*models.Template, error)
	StartSession(ctx context.Context, templateID int64, date time.Time) (*models.Session, error)
	FinishSession(ctx context.Context, sessionID int64, endedAt time.Time) (*models.Session, error)
	GetSessionDetail(ctx context.Context, sessionID int64) (*models.Session, error)
	ListSessions(ctx context.Context, filter models.SessionFilter) ([]*models.Session, error)
	GetExercisingState(ctx context.Context) (*models.AppState, error)
	SetExercisingState(ctx context.Context, isExercising bool, activeTemplateID *int64) error
}

// Tracker is read on every foreground and written only by start and stop.
type Tracker struct {
	store store
}

func New(s store) *Tracker {
	return &Tracker{store: s}
}

// Current returns the persisted state.
func (t *Tracker) Current(ctx context.Context) (State, error) {
	st, err := t.store.GetExercisingState(ctx)
	if err != nil {
		return State{}, fmt.Errorf("read state: %w", err)
	}
	return toState(st), nil
}

func toState(st *models.AppState) State {
	if st.IsExercising {
		return State{Status: Exercising, TemplateID: st.ActiveTemplateID, UpdatedAt: st.UpdatedAt}
	}
	return State{Status: Idle, UpdatedAt: st.UpdatedAt}
}

// Start moves Idle to Exercising and opens a session from the template.
func (t *Tracker) Start(ctx context.Context, templateID int64, date time.Time) (*models.Session, error) {
	current, err := t.Current(ctx)
	if err != nil {
		return nil, err
	}
	if current.Status == Exercising {
		return nil, ErrAlreadyExercising
	}

	if _, err := t.store.GetTemplate(ctx, templateID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: template %d does not exist", ErrInvalidTemplate, templateID)
		}
		return nil, err
	}

	session, err := t.store.StartSession(ctx, templateID, date)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	if err := t.store.SetExercisingState(ctx, true, &templateID); err != nil {
		return nil, fmt.Errorf("set state: %w", err)
	}

	log.WithFields(log.Fields{"template_id": templateID, "session_id": session.ID}).Info("workout started")
	return session, nil
}

// Stop finishes the session and moves Exercising back to Idle. Only an
// unfinished session of the active template can be stopped.
func (t *Tracker) Stop(ctx context.Context, sessionID int64, endedAt time.Time) (*models.Session, error) {
	current, err := t.Current(ctx)
	if err != nil {
		return nil, err
	}
	if current.Status != Exercising {
		return nil, ErrNotExercising
	}

	target, err := t.store.GetSessionDetail(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if target.IsFinished() {
		return nil, fmt.Errorf("%w: session %d is already finished", ErrSessionNotActive, sessionID)
	}
	if current.TemplateID != nil && target.TemplateID != nil && *target.TemplateID != *current.TemplateID {
		return nil, fmt.Errorf("%w: session %d was started from template %d", ErrSessionNotActive, sessionID, *target.TemplateID)
	}

	session, err := t.store.FinishSession(ctx, sessionID, endedAt)
	if err != nil {
		return nil, fmt.Errorf("finish session: %w", err)
	}

	if err := t.store.SetExercisingState(ctx, false, nil); err != nil {
		return nil, fmt.Errorf("set state: %w", err)
	}

	log.WithField("session_id", sessionID).Info("workout finished")
	return session, nil
}

// Abandon returns to Idle without finishing any session.
func (t *Tracker) Abandon(ctx context.Context) error {
	current, err := t.Current(ctx)
	if err != nil {
		return err
	}
	if current.Status != Exercising {
		return ErrNotExercising
	}
	return t.store.SetExercisingState(ctx, false, nil)
}

// activeLookback bounds how many recent sessions ActiveSession inspects.
const activeLookback = 20

// ActiveSession returns the newest unfinished session while exercising.
func (t *Tracker) ActiveSession(ctx context.Context) (*models.Session, error) {
	current, err := t.Current(ctx)
	if err != nil {
		return nil, err
	}
	if current.Status != Exercising {
		return nil, ErrNotExercising
	}

	sessions, err := t.store.ListSessions(ctx, models.SessionFilter{Limit: activeLookback})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	for _, s := range sessions {
		if s.IsFinished() {
			continue
		}
		if current.TemplateID == nil || s.TemplateID == nil || *s.TemplateID == *current.TemplateID {
			return s, nil
		}
	}
	return nil, ErrNotExercising
}
