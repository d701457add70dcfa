// ABOUTME: Analyzer fetches sessions through a narrow repository and runs the pure aggregations.
// ABOUTME: Sessions are always ordered by date before truncation or padding.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/gymlog/internal/models"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=analytics_test

type sessionsRepo interface {
	ListSessionDetails(ctx context.Context, filter models.SessionFilter) ([]*models.Session, error)
}

// Analyzer turns stored sessions into chart-ready series.
type Analyzer struct {
	repo  sessionsRepo
	clock func() time.Time
}

func NewAnalyzer(repo sessionsRepo) *Analyzer {
	return &Analyzer{
		repo:  repo,
		clock: time.Now,
	}
}

// WithClock replaces the time source used to place the current week.
func (a *Analyzer) WithClock(clock func() time.Time) *Analyzer {
	a.clock = clock
	return a
}

// Summary is the dashboard view over recent history.
type Summary struct {
	TotalSessions     int             `json:"total_sessions"`
	TotalVolume       float64         `json:"total_volume"`
	SyntheticSessions int             `json:"synthetic_sessions"`
	LastSession       *time.Time      `json:"last_session,omitempty"`
	Weekly            []WeekBucket    `json:"weekly"`
	Completion        Completion      `json:"completion"`
	TopExercises      []ExerciseCount `json:"top_exercises"`
}

// WeeklyVolume buckets the last weekCount weeks of sessions.
func (a *Analyzer) WeeklyVolume(ctx context.Context, weekCount int) ([]WeekBucket, error) {
	buckets := WeekBuckets(a.clock(), weekCount)
	if len(buckets) == 0 {
		return buckets, nil
	}

	from := buckets[0].Start
	sessions, err := a.repo.ListSessionDetails(ctx, models.SessionFilter{From: &from})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return FoldSessions(buckets, SortByDate(sessions)), nil
}

// ProgressiveOverload returns the padded overload series for one exercise.
func (a *Analyzer) ProgressiveOverload(ctx context.Context, exerciseName string, pointCount int) ([]OverloadPoint, error) {
	sessions, err := a.repo.ListSessionDetails(ctx, models.SessionFilter{})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return ProgressiveOverloadSeries(sessions, exerciseName, pointCount), nil
}

// CompletionRate computes completion over the sessions the filter selects.
func (a *Analyzer) CompletionRate(ctx context.Context, filter models.SessionFilter) (Completion, error) {
	sessions, err := a.repo.ListSessionDetails(ctx, filter)
	if err != nil {
		return Completion{}, fmt.Errorf("list sessions: %w", err)
	}
	return CompletionStats(sessions), nil
}

// TopExercises ranks exercises over all history, first-seen meaning oldest.
func (a *Analyzer) TopExercises(ctx context.Context, limit int) ([]ExerciseCount, error) {
	sessions, err := a.repo.ListSessionDetails(ctx, models.SessionFilter{})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return TopExercisesByFrequency(SortByDate(sessions), limit), nil
}

// Summary combines the weekly, completion, and frequency views of the last weekCount weeks.
func (a *Analyzer) Summary(ctx context.Context, weekCount, topLimit int) (*Summary, error) {
	buckets := WeekBuckets(a.clock(), weekCount)

	filter := models.SessionFilter{}
	if len(buckets) > 0 {
		from := buckets[0].Start
		filter.From = &from
	}
	sessions, err := a.repo.ListSessionDetails(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sessions = SortByDate(sessions)

	sum := &Summary{
		TotalSessions: len(sessions),
		Weekly:        FoldSessions(buckets, sessions),
		Completion:    CompletionStats(sessions),
		TopExercises:  TopExercisesByFrequency(sessions, topLimit),
	}
	for _, s := range sessions {
		v := ComputeSessionVolume(s)
		if v.Synthetic {
			sum.SyntheticSessions++
			continue
		}
		sum.TotalVolume += v.Value
	}
	if n := len(sessions); n > 0 {
		last := sessions[n-1].SessionDate
		sum.LastSession = &last
	}
	return sum, nil
}
