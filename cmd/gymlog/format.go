// ABOUTME: Shared parsing and formatting helpers for CLI commands.
// ABOUTME: Covers timestamps, ids, metric arguments, and column padding.
package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/gymlog/internal/models"
)

func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02",
		time.RFC3339,
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}

// parseOptionalTime returns nil for an empty flag.
func parseOptionalTime(flag, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseTime(value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %s (use YYYY-MM-DD or YYYY-MM-DD HH:MM)", flag, value)
	}
	return &t, nil
}

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id: %s", kind, s)
	}
	return id, nil
}

// parseMetricArgs turns key=value pairs into a metric bag. Numeric values
// are stored as numbers, anything else as text.
func parseMetricArgs(args []string) (models.MetricBag, error) {
	bag := make(models.MetricBag, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metric %q (use name=value)", arg)
		}
		value = strings.TrimSpace(value)
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			bag[key] = f
		} else {
			bag[key] = value
		}
	}
	return bag, nil
}

// parseExerciseSpec reads name[:sets[:primary[:secondary,...[:metric,...]]]].
func parseExerciseSpec(spec string) (models.TemplateExercise, error) {
	parts := strings.Split(spec, ":")
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return models.TemplateExercise{}, fmt.Errorf("invalid exercise %q: name is required", spec)
	}
	ex := models.NewTemplateExercise(name)

	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		sets, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || sets < 0 {
			return ex, fmt.Errorf("invalid set count in %q", spec)
		}
		ex = ex.WithSets(sets)
	}
	if len(parts) > 2 {
		ex.PrimaryMuscleGroup = strings.TrimSpace(parts[2])
	}
	if len(parts) > 3 {
		ex.SecondaryMuscleGroups = splitList(parts[3])
	}
	if len(parts) > 4 {
		if names := splitList(parts[4]); len(names) > 0 {
			ex.Metrics = make([]models.MetricDefinition, 0, len(names))
			for _, n := range names {
				ex.Metrics = append(ex.Metrics, models.MetricDefinition{Name: n})
			}
		}
	}
	if len(parts) > 5 {
		return ex, fmt.Errorf("invalid exercise %q: too many fields", spec)
	}
	return ex, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func formatBag(bag models.MetricBag) string {
	if len(bag) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(bag))
	for k := range bag {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, bag[k]))
	}
	return strings.Join(parts, " ")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}
