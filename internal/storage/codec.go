// ABOUTME: Column encoding helpers shared by the SQLite repository.
// ABOUTME: Timestamps are RFC3339 UTC text; lists and metric definitions are JSON text.
package storage

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/harperreed/gymlog/internal/models"
	log "github.com/sirupsen/logrus"
)

// now is swapped in tests that need a fixed clock.
var now = time.Now

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// parseTime accepts the formats older rows were written with and returns the zero
// time for anything else.
func parseTime(s string) time.Time {
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if s != "" {
		log.WithField("value", s).Debug("unparseable timestamp")
	}
	return time.Time{}
}

func encodeStrings(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeStrings(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		// Some rows store a bare comma separated list.
		for _, part := range strings.Split(raw, ",") {
			if p := strings.TrimSpace(part); p != "" {
				list = append(list, p)
			}
		}
	}
	return list
}

func encodeMetricDefs(defs []models.MetricDefinition) string {
	if len(defs) == 0 {
		return "[]"
	}
	b, err := json.Marshal(defs)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// decodeMetricDefs reads either a list of definitions or a list of plain names.
func decodeMetricDefs(raw string) []models.MetricDefinition {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" || raw == "[]" {
		return nil
	}

	var defs []models.MetricDefinition
	if err := json.Unmarshal([]byte(raw), &defs); err == nil {
		return defs
	}

	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err == nil {
		defs = make([]models.MetricDefinition, 0, len(names))
		for _, n := range names {
			defs = append(defs, models.MetricDefinition{Name: n})
		}
		return defs
	}

	log.WithField("value", raw).Warn("unreadable metric definitions")
	return nil
}

// setColumnValues derives the weight and reps_or_time columns from a metrics bag.
func setColumnValues(bag models.MetricBag) (weight, repsOrTime float64) {
	weight = bag.Float(models.MetricWeight)
	if v, ok := bag.Lookup(models.MetricReps); ok && v.Valid() {
		return weight, v.Value
	}
	return weight, bag.Float(models.MetricTime)
}
