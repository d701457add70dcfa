// ABOUTME: Session volume and per-set load extraction.
// ABOUTME: Fallback volumes (duration, placeholder) are tagged synthetic.
package analytics

import (
	"sort"
	"strings"

	"github.com/harperreed/gymlog/internal/models"
	log "github.com/sirupsen/logrus"
)

// PlaceholderVolume keeps charts non-empty for sessions with neither load nor duration.
const PlaceholderVolume = 50.0

// VolumeSource says where a session volume came from.
type VolumeSource string

const (
	SourceSets        VolumeSource = "sets"
	SourceDuration    VolumeSource = "duration"
	SourcePlaceholder VolumeSource = "placeholder"
)

// Volume is a session's load. Synthetic volumes are stand-ins, not measurements.
type Volume struct {
	Value     float64      `json:"value"`
	Synthetic bool         `json:"synthetic"`
	Source    VolumeSource `json:"source"`
}

// SetLoad is the weight and reps of one set after normalization.
type SetLoad struct {
	Weight float64 `json:"weight"`
	Reps   float64 `json:"reps"`
}

// Volume returns weight x reps.
func (l SetLoad) Volume() float64 {
	return l.Weight * l.Reps
}

// ExtractSetLoad reads weight and reps from the metrics bag, falling back to the
// set's columns for names the bag lacks. Unreadable values count as 0.
func ExtractSetLoad(set models.SessionSet) SetLoad {
	if set.RawMetrics != "" {
		log.WithField("set_id", set.ID).Warn("set metrics unreadable, using stored columns")
		return SetLoad{Weight: set.Weight, Reps: set.RepsOrTime}
	}

	load := SetLoad{Weight: set.Weight, Reps: set.RepsOrTime}
	bag := set.CustomMetrics

	if v, ok := bag.Lookup(models.MetricWeight); ok {
		load.Weight = metricOrZero(set.ID, models.MetricWeight, v)
	}

	if v, ok := bag.Lookup(models.MetricReps); ok {
		load.Reps = metricOrZero(set.ID, models.MetricReps, v)
	} else if _, timed := bag.Lookup(models.MetricTime); timed {
		// reps_or_time holds a duration for timed sets
		load.Reps = 0
	}
	return load
}

func metricOrZero(setID int64, name string, v models.MetricValue) float64 {
	if !v.Valid() {
		log.WithFields(log.Fields{"set_id": setID, "metric": name}).Warn("unparseable metric value, using 0")
		return 0
	}
	return v.Value
}

// ComputeSessionVolume sums weight x reps over every set of the session. A zero
// sum falls back to the duration in minutes, then to PlaceholderVolume.
func ComputeSessionVolume(s *models.Session) Volume {
	total := 0.0
	for _, e := range s.Exercises {
		for _, set := range e.Sets {
			total += ExtractSetLoad(set).Volume()
		}
	}
	if total > 0 {
		return Volume{Value: total, Source: SourceSets}
	}

	if s.DurationMinutes != nil && *s.DurationMinutes > 0 {
		return Volume{Value: float64(*s.DurationMinutes), Synthetic: true, Source: SourceDuration}
	}
	return Volume{Value: PlaceholderVolume, Synthetic: true, Source: SourcePlaceholder}
}

// MuscleVolume counts sets per muscle. Every set of an exercise counts once for
// its primary muscle and once for each secondary muscle. Exercises without sets
// or muscles contribute nothing.
func MuscleVolume(s *models.Session) []models.MuscleVolume {
	counts := make(map[string]int)
	for _, e := range s.Exercises {
		if len(e.Sets) == 0 {
			continue
		}
		seen := make(map[string]bool)
		muscles := append([]string{e.PrimaryMuscleGroup}, e.SecondaryMuscleGroups...)
		for _, m := range muscles {
			m = strings.ToLower(strings.TrimSpace(m))
			if m == "" || seen[m] {
				continue
			}
			seen[m] = true
			counts[m] += len(e.Sets)
		}
	}

	volumes := make([]models.MuscleVolume, 0, len(counts))
	for muscle, sets := range counts {
		volumes = append(volumes, models.MuscleVolume{
			SessionID:  s.ID,
			MuscleName: muscle,
			TotalSets:  sets,
		})
	}
	sort.Slice(volumes, func(i, j int) bool {
		return volumes[i].MuscleName < volumes[j].MuscleName
	})
	return volumes
}

// SortByDate returns a copy of sessions ordered by session date ascending, ties by id.
func SortByDate(sessions []*models.Session) []*models.Session {
	sorted := make([]*models.Session, len(sessions))
	copy(sorted, sessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.SessionDate.Equal(b.SessionDate) {
			return a.SessionDate.Before(b.SessionDate)
		}
		return a.ID < b.ID
	})
	return sorted
}
