// ABOUTME: Weekly volume buckets keyed by ISO week.
// ABOUTME: Buckets are built first, then sessions are folded into them.
package analytics

import (
	"fmt"
	"time"

	"github.com/harperreed/gymlog/internal/models"
)

// WeekBucket is one ISO week of volume. Synthetic volume is kept apart so
// callers can choose whether to show it.
type WeekBucket struct {
	Label           string    `json:"label"`
	Year            int       `json:"year"`
	Week            int       `json:"week"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Volume          float64   `json:"volume"`
	SyntheticVolume float64   `json:"synthetic_volume"`
	Sessions        int       `json:"sessions"`
}

// Contains reports whether t falls in the bucket's week.
func (b WeekBucket) Contains(t time.Time) bool {
	t = t.In(b.Start.Location())
	return !t.Before(b.Start) && t.Before(b.End)
}

// WeekStart returns midnight of the Monday starting t's ISO week, in t's location.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// WeekBuckets returns weekCount empty buckets, oldest first, the last one
// holding now. Labels are "W" plus the ISO week number.
func WeekBuckets(now time.Time, weekCount int) []WeekBucket {
	if weekCount <= 0 {
		return []WeekBucket{}
	}

	current := WeekStart(now)
	buckets := make([]WeekBucket, 0, weekCount)
	for i := weekCount - 1; i >= 0; i-- {
		start := current.AddDate(0, 0, -7*i)
		year, week := start.ISOWeek()
		buckets = append(buckets, WeekBucket{
			Label: fmt.Sprintf("W%d", week),
			Year:  year,
			Week:  week,
			Start: start,
			End:   start.AddDate(0, 0, 7),
		})
	}
	return buckets
}

// FoldSessions returns a copy of buckets with each session's volume added to the
// bucket of its week. Sessions outside every bucket are ignored.
func FoldSessions(buckets []WeekBucket, sessions []*models.Session) []WeekBucket {
	out := make([]WeekBucket, len(buckets))
	copy(out, buckets)

	for _, s := range sessions {
		for i := range out {
			if !out[i].Contains(s.SessionDate) {
				continue
			}
			v := ComputeSessionVolume(s)
			if v.Synthetic {
				out[i].SyntheticVolume += v.Value
			} else {
				out[i].Volume += v.Value
			}
			out[i].Sessions++
			break
		}
	}
	return out
}

// BucketByWeek composes WeekBuckets and FoldSessions.
func BucketByWeek(sessions []*models.Session, weekCount int, now time.Time) []WeekBucket {
	return FoldSessions(WeekBuckets(now, weekCount), sessions)
}
