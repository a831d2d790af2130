package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampTo90(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int
	}{
		{name: "in range", in: 44.4, want: 44},
		{name: "tie rounds up", in: 45.5, want: 46},
		{name: "negative", in: -3, want: 0},
		{name: "above range", in: 120, want: 90},
		{name: "NaN", in: math.NaN(), want: 0},
		{name: "+Inf", in: math.Inf(1), want: 0},
		{name: "-Inf", in: math.Inf(-1), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampTo90(tt.in))
		})
	}
}

func TestClampTo90_AlwaysInRange(t *testing.T) {
	for x := -500.0; x <= 500; x += 0.37 {
		got := ClampTo90(x)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, 90)
	}
}

func TestScaleTo90(t *testing.T) {
	tests := []struct {
		name        string
		x, min, max float64
		want        int
	}{
		{name: "0-100 midpoint", x: 50, min: 0, max: 100, want: 45},
		{name: "offset range", x: 75, min: 50, max: 100, want: 45},
		{name: "negative range", x: -50, min: -100, max: 0, want: 45},
		{name: "fraction", x: 0.75, min: 0, max: 1, want: 68},
		{name: "degenerate range keeps value", x: 30, min: 5, max: 5, want: 30},
		{name: "degenerate range clamps", x: 300, min: 5, max: 5, want: 90},
		{name: "below min", x: -10, min: 0, max: 100, want: 0},
		{name: "non-finite", x: math.NaN(), min: 0, max: 1, want: 0},
		{name: "non-finite bound", x: 1, min: 0, max: math.Inf(1), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScaleTo90(tt.x, tt.min, tt.max))
		})
	}
}

func TestScaleTo90_Idempotence(t *testing.T) {
	for v := 0; v <= 90; v++ {
		// map v back onto 0-100, then forward again
		raw := float64(v) / 90 * 100
		assert.InDelta(t, float64(v), float64(ScaleTo90(raw, 0, 100)), 1)
	}
}

func TestAccuracyTo90(t *testing.T) {
	tests := []struct {
		name    string
		in      float64
		percent bool
		want    int
	}{
		{name: "full", in: 1, want: 90},
		{name: "half", in: 0.5, want: 45},
		{name: "three quarters", in: 0.75, want: 68},
		{name: "quarter", in: 0.25, want: 23},
		{name: "above one", in: 1.5, want: 90},
		{name: "negative", in: -0.5, want: 0},
		{name: "percent full", in: 100, percent: true, want: 90},
		{name: "percent 75", in: 75, percent: true, want: 68},
		{name: "percent 25", in: 25, percent: true, want: 23},
		{name: "percent above 100", in: 150, percent: true, want: 90},
		{name: "NaN", in: math.NaN(), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AccuracyTo90(tt.in, tt.percent))
		})
	}

	assert.Equal(t, AccuracyTo90(0.8, false), FractionTo90(0.8))
	assert.Equal(t, AccuracyTo90(80, true), PercentTo90(80))
	assert.Equal(t, 72, PercentTo90(80))
}

func TestWerTo90(t *testing.T) {
	tests := []struct {
		name string
		wer  float64
		want int
	}{
		{name: "perfect", wer: 0, want: 90},
		{name: "half", wer: 0.5, want: 60},
		{name: "all wrong", wer: 1, want: 30},
		{name: "above one", wer: 1.5, want: 20},
		{name: "double", wer: 2, want: 10},
		{name: "extreme", wer: 10, want: 0},
		{name: "very extreme", wer: 100, want: 0},
		{name: "negative treated as zero", wer: -0.5, want: 90},
		{name: "tiny", wer: 0.01, want: 89},
		{name: "NaN", wer: math.NaN(), want: 0},
		{name: "Inf", wer: math.Inf(1), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WerTo90(tt.wer))
		})
	}
}

func TestWerTo90_Monotonic(t *testing.T) {
	prev := WerTo90(0)
	for _, wer := range []float64{0.25, 0.5, 0.75, 1, 1.5, 2} {
		got := WerTo90(wer)
		assert.Less(t, got, prev, "wer=%v", wer)
		prev = got
	}
}

func TestWeightedOverall(t *testing.T) {
	tests := []struct {
		name      string
		subscores map[string]int
		weights   map[string]float64
		want      int
	}{
		{name: "mean", subscores: map[string]int{"a": 80, "b": 70, "c": 60}, want: 70},
		{name: "mean of three", subscores: map[string]int{"a": 90, "b": 60, "c": 30}, want: 60},
		{name: "empty", subscores: map[string]int{}, want: 0},
		{
			name:      "weighted",
			subscores: map[string]int{"a": 90, "b": 60, "c": 30},
			weights:   map[string]float64{"a": 0.5, "b": 0.3, "c": 0.2},
			want:      69,
		},
		{
			name:      "weighted pair",
			subscores: map[string]int{"a": 90, "b": 60},
			weights:   map[string]float64{"a": 0.7, "b": 0.3},
			want:      81,
		},
		{
			name:      "zero weights fall back to mean",
			subscores: map[string]int{"a": 90, "b": 60},
			weights:   map[string]float64{"a": 0, "b": 0},
			want:      75,
		},
		{
			name:      "keys without weight excluded",
			subscores: map[string]int{"a": 90, "b": 60, "c": 0},
			weights:   map[string]float64{"a": 1, "b": 1},
			want:      75,
		},
		{
			name:      "negative weight ignored",
			subscores: map[string]int{"a": 90, "b": 60},
			weights:   map[string]float64{"a": 0.5, "b": -0.5},
			want:      90,
		},
		{
			name:      "no overlapping keys",
			subscores: map[string]int{"a": 90},
			weights:   map[string]float64{"z": 1},
			want:      0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WeightedOverall(tt.subscores, tt.weights))
		})
	}
}

func TestNormalizeSubscores(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]float64
		scalers map[string]Scaler
		want    map[string]int
	}{
		{name: "in range passes through", raw: map[string]float64{"content": 80, "fluency": 90}, want: map[string]int{"content": 80, "fluency": 90}},
		{name: "100 scale", raw: map[string]float64{"content": 100}, want: map[string]int{"content": 90}},
		{name: "95 on 100 scale", raw: map[string]float64{"content": 95}, want: map[string]int{"content": 86}},
		{name: "negative clamps", raw: map[string]float64{"content": -4}, want: map[string]int{"content": 0}},
		{
			name:    "custom scalers",
			raw:     map[string]float64{"content": 80, "fluency": 4},
			scalers: map[string]Scaler{"content": {Min: 0, Max: 100}, "fluency": {Min: 1, Max: 5}},
			want:    map[string]int{"content": 72, "fluency": 68},
		},
		{name: "empty", raw: map[string]float64{}, want: map[string]int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSubscores(tt.raw, tt.scalers))
		})
	}
}

func TestRubricHelpers(t *testing.T) {
	assert.Equal(t, 0, RubricTo90(0))
	assert.Equal(t, 45, RubricTo90(2.5))
	assert.Equal(t, 72, RubricTo90(4))
	assert.Equal(t, 90, RubricTo90(6))
	assert.Equal(t, 5.0, ScoreTo5(90))
	assert.Equal(t, 2.5, ScoreTo5(45))
	assert.Equal(t, 0.0, ClampTo5(-1))
	assert.Equal(t, 3.3, ClampTo5(3.26))
	assert.Equal(t, 50, CalculatePercentage(1, 2))
	assert.Equal(t, 0, CalculatePercentage(3, 0))
}
