// ABOUTME: Tests for metric definitions and the metrics bag.
// ABOUTME: Validates tolerant normalization and case-insensitive lookup.
package models

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestNormalizeMetric(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantKind  MetricKind
		wantValue float64
	}{
		{"float", 82.5, MetricNumber, 82.5},
		{"int", 5, MetricNumber, 5},
		{"json number", json.Number("12"), MetricNumber, 12},
		{"numeric string", "80", MetricStringNumeric, 80},
		{"padded string", "  62.5 ", MetricStringNumeric, 62.5},
		{"string with unit", "80 kg", MetricStringNumeric, 80},
		{"nested value", map[string]any{"value": 100.0, "unit": "kg"}, MetricNested, 100},
		{"nested string value", map[string]any{"Value": "40"}, MetricNested, 40},
		{"nested without value", map[string]any{"unit": "kg"}, MetricUnparseable, 0},
		{"garbage string", "heavy", MetricUnparseable, 0},
		{"empty string", "", MetricUnparseable, 0},
		{"bool", true, MetricUnparseable, 0},
		{"nil", nil, MetricUnparseable, 0},
		{"nan", math.NaN(), MetricUnparseable, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeMetric(tt.input)
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", got.Kind, tt.wantKind)
			}
			if got.Value != tt.wantValue {
				t.Errorf("Value = %v, want %v", got.Value, tt.wantValue)
			}
		})
	}
}

func TestNormalizeMetricDepthLimit(t *testing.T) {
	var v any = 7.0
	for i := 0; i < maxNestedDepth+1; i++ {
		v = map[string]any{"value": v}
	}
	if got := NormalizeMetric(v); got.Valid() {
		t.Errorf("expected unparseable for deeply nested value, got %+v", got)
	}
}

func TestMetricBagLookupIsCaseInsensitive(t *testing.T) {
	bag := MetricBag{"Weight": "80", "REPS": 8}

	if got := bag.Float("weight"); got != 80 {
		t.Errorf("weight = %v, want 80", got)
	}
	if got := bag.Float("reps"); got != 8 {
		t.Errorf("reps = %v, want 8", got)
	}
	if _, ok := bag.Lookup("distance"); ok {
		t.Error("expected distance to be absent")
	}
	if got := bag.Float("distance"); got != 0 {
		t.Errorf("missing metric = %v, want 0", got)
	}
}

func TestMetricBagLookupPrefersExactKey(t *testing.T) {
	bag := MetricBag{"weight": 100, "Weight": 50}
	if got := bag.Float("weight"); got != 100 {
		t.Errorf("weight = %v, want 100", got)
	}
}

func TestParseMetricBag(t *testing.T) {
	bag, err := ParseMetricBag(`{"weight": {"value": "60"}, "reps": "10"}`)
	if err != nil {
		t.Fatalf("ParseMetricBag failed: %v", err)
	}
	if got := bag.Float("weight"); got != 60 {
		t.Errorf("weight = %v, want 60", got)
	}

	empty, err := ParseMetricBag("")
	if err != nil || len(empty) != 0 {
		t.Errorf("empty text: bag=%v err=%v", empty, err)
	}

	if _, err := ParseMetricBag(`{"weight": `); !errors.Is(err, ErrMalformedMetric) {
		t.Errorf("expected ErrMalformedMetric, got %v", err)
	}
}

func TestMetricBagEncode(t *testing.T) {
	raw, err := MetricBag{"reps": 5}.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	back, err := ParseMetricBag(raw)
	if err != nil {
		t.Fatalf("ParseMetricBag failed: %v", err)
	}
	if back.Float("reps") != 5 {
		t.Errorf("reps = %v, want 5", back.Float("reps"))
	}

	if raw, _ := MetricBag(nil).Encode(); raw != "{}" {
		t.Errorf("nil bag encoded as %q, want {}", raw)
	}
}
