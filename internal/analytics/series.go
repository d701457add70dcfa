// ABOUTME: Progressive overload series, completion rate, and exercise frequency.
// ABOUTME: All functions are pure and deterministic for identical input.
package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/harperreed/gymlog/internal/models"
)

// OverloadPoint is the average load of one exercise in one session.
// Padded points repeat the last real point to keep the series a fixed width.
type OverloadPoint struct {
	SessionID int64     `json:"session_id"`
	Date      time.Time `json:"date"`
	AvgWeight float64   `json:"avg_weight"`
	AvgReps   float64   `json:"avg_reps"`
	Sets      int       `json:"sets"`
	Padded    bool      `json:"padded"`
}

// ProgressiveOverloadSeries returns the most recent pointCount points for the
// exercise, oldest first. Fewer real points are right-padded by repeating the
// last one; no point is ever invented before the first real one. A
// non-positive pointCount returns every real point.
func ProgressiveOverloadSeries(sessions []*models.Session, exerciseName string, pointCount int) []OverloadPoint {
	name := strings.TrimSpace(exerciseName)
	points := []OverloadPoint{}

	for _, s := range SortByDate(sessions) {
		var weight, reps float64
		sets := 0
		for _, e := range s.Exercises {
			if !strings.EqualFold(strings.TrimSpace(e.ExerciseName), name) {
				continue
			}
			for _, set := range e.Sets {
				load := ExtractSetLoad(set)
				weight += load.Weight
				reps += load.Reps
				sets++
			}
		}
		if sets == 0 {
			continue
		}
		points = append(points, OverloadPoint{
			SessionID: s.ID,
			Date:      s.SessionDate,
			AvgWeight: weight / float64(sets),
			AvgReps:   reps / float64(sets),
			Sets:      sets,
		})
	}

	if pointCount <= 0 || len(points) == 0 {
		return points
	}
	if len(points) > pointCount {
		points = points[len(points)-pointCount:]
	}

	last := points[len(points)-1]
	last.Padded = true
	for len(points) < pointCount {
		points = append(points, last)
	}
	return points
}

// Completion counts exercises whose recorded sets met the planned count.
type Completion struct {
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

// CompletionStats compares each session exercise's recorded sets against the
// planned sets captured when the session started, not the template's current
// plan. Only finished sessions count; a planned exercise with no sets in a
// finished session was skipped and counts as incomplete. Exercises without a
// plan are not counted.
func CompletionStats(sessions []*models.Session) Completion {
	var c Completion
	for _, s := range sessions {
		if !s.IsFinished() {
			continue
		}
		for _, e := range s.Exercises {
			if e.PlannedSets <= 0 {
				continue
			}
			c.Total++
			if len(e.Sets) >= e.PlannedSets {
				c.Completed++
			}
		}
	}
	if c.Total > 0 {
		c.Percent = float64(c.Completed) / float64(c.Total) * 100
	}
	return c
}

// CompletionRate is the completed percentage, 0 when nothing was planned.
func CompletionRate(sessions []*models.Session) float64 {
	return CompletionStats(sessions).Percent
}

// ExerciseCount is how many session exercises used a name.
type ExerciseCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TopExercisesByFrequency returns the limit most performed exercises. Sessions
// carry every planned exercise, so only exercises with a recorded set count.
// Names match case-insensitively and keep the first spelling seen; ties keep
// first-seen order. A non-positive limit returns all.
func TopExercisesByFrequency(sessions []*models.Session, limit int) []ExerciseCount {
	index := make(map[string]int)
	counts := []ExerciseCount{}

	for _, s := range sessions {
		for _, e := range s.Exercises {
			name := strings.TrimSpace(e.ExerciseName)
			if name == "" || len(e.Sets) == 0 {
				continue
			}
			key := strings.ToLower(name)
			i, ok := index[key]
			if !ok {
				i = len(counts)
				index[key] = i
				counts = append(counts, ExerciseCount{Name: name})
			}
			counts[i].Count++
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}
