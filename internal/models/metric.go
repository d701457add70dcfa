// ABOUTME: Metric definitions and the untyped per-set metrics bag.
// ABOUTME: Normalizes numeric, string-numeric, and nested values into numbers.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrMalformedMetric is returned when a stored metrics bag can't be decoded.
var ErrMalformedMetric = errors.New("malformed metric")

// Well-known metric names. Lookups are case-insensitive.
const (
	MetricWeight   = "weight"
	MetricReps     = "reps"
	MetricTime     = "time"
	MetricDistance = "distance"
)

// MetricDefinition describes one value a template exercise records per set.
type MetricDefinition struct {
	Name string `json:"name" yaml:"name"`
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// DefaultMetricDefinitions returns the weight/reps pair used when none is given.
func DefaultMetricDefinitions() []MetricDefinition {
	return []MetricDefinition{
		{Name: MetricWeight, Unit: "kg"},
		{Name: MetricReps},
	}
}

// MetricKind tags how a metric value was represented at rest.
type MetricKind int

const (
	MetricNumber MetricKind = iota
	MetricStringNumeric
	MetricNested
	MetricUnparseable
)

func (k MetricKind) String() string {
	switch k {
	case MetricNumber:
		return "number"
	case MetricStringNumeric:
		return "string"
	case MetricNested:
		return "nested"
	default:
		return "unparseable"
	}
}

// MetricValue is a normalized metric. Value is 0 when Kind is MetricUnparseable.
type MetricValue struct {
	Kind  MetricKind
	Value float64
}

// Valid reports whether the value could be normalized to a number.
func (v MetricValue) Valid() bool {
	return v.Kind != MetricUnparseable
}

// maxNestedDepth bounds recursion into {"value": {"value": ...}} chains.
const maxNestedDepth = 4

// NormalizeMetric classifies a decoded JSON (or in-memory) value.
func NormalizeMetric(v any) MetricValue {
	return normalizeMetric(v, 0)
}

func normalizeMetric(v any, depth int) MetricValue {
	switch x := v.(type) {
	case float64:
		return finite(x, MetricNumber)
	case float32:
		return finite(float64(x), MetricNumber)
	case int:
		return MetricValue{Kind: MetricNumber, Value: float64(x)}
	case int64:
		return MetricValue{Kind: MetricNumber, Value: float64(x)}
	case int32:
		return MetricValue{Kind: MetricNumber, Value: float64(x)}
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return MetricValue{Kind: MetricUnparseable}
		}
		return finite(f, MetricNumber)
	case string:
		f, ok := parseNumericString(x)
		if !ok {
			return MetricValue{Kind: MetricUnparseable}
		}
		return finite(f, MetricStringNumeric)
	case map[string]any:
		if depth >= maxNestedDepth {
			return MetricValue{Kind: MetricUnparseable}
		}
		inner, ok := lookupFold(x, "value")
		if !ok {
			return MetricValue{Kind: MetricUnparseable}
		}
		nv := normalizeMetric(inner, depth+1)
		if !nv.Valid() {
			return nv
		}
		return MetricValue{Kind: MetricNested, Value: nv.Value}
	default:
		return MetricValue{Kind: MetricUnparseable}
	}
}

func finite(f float64, kind MetricKind) MetricValue {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return MetricValue{Kind: MetricUnparseable}
	}
	return MetricValue{Kind: kind, Value: f}
}

// parseNumericString accepts "80", " 80.5 " and "80 kg".
func parseNumericString(s string) (float64, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// MetricBag is the serialized map of custom metrics stored on a set.
type MetricBag map[string]any

// ParseMetricBag decodes the stored text of a metrics bag. Empty text is an empty bag.
func ParseMetricBag(raw string) (MetricBag, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return MetricBag{}, nil
	}
	var bag MetricBag
	if err := json.Unmarshal([]byte(raw), &bag); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMetric, err)
	}
	if bag == nil {
		bag = MetricBag{}
	}
	return bag, nil
}

// Encode serializes the bag for storage.
func (b MetricBag) Encode() (string, error) {
	if len(b) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(map[string]any(b))
	if err != nil {
		return "", fmt.Errorf("encode metrics: %w", err)
	}
	return string(data), nil
}

// Lookup finds a metric by case-insensitive name and normalizes it.
func (b MetricBag) Lookup(name string) (MetricValue, bool) {
	v, ok := lookupFold(b, name)
	if !ok {
		return MetricValue{}, false
	}
	return NormalizeMetric(v), true
}

// Float returns the normalized value of name, or 0 when absent or unparseable.
func (b MetricBag) Float(name string) float64 {
	mv, ok := b.Lookup(name)
	if !ok {
		return 0
	}
	return mv.Value
}

// lookupFold prefers an exact key, then the first case-insensitive match in key order.
func lookupFold(m map[string]any, name string) (any, bool) {
	if v, ok := m[name]; ok {
		return v, true
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		if strings.EqualFold(k, name) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, false
	}
	sort.Strings(keys)
	return m[keys[0]], true
}
