// Package scoring turns learner responses into 0-90 scores. It holds the normalization
// primitives, the deterministic scorers for closed-form tasks, the length heuristics used
// when no AI grader is available, and the merger that reconciles several graders.
//
// Everything in this package is pure. Non-finite inputs degrade to 0 instead of
// propagating NaN.
package scoring

import (
	"math"
	"sort"
)

// MaxScore is the top of the canonical score band.
const MaxScore = 90

// Scaler describes the raw range of a custom subscore.
type Scaler struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// roundHalfUp rounds ties towards +Inf.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// ClampTo90 rounds x to the nearest integer and clamps it to [0,90].
func ClampTo90(x float64) int {
	if !isFinite(x) {
		return 0
	}
	r := roundHalfUp(x)
	if r < 0 {
		return 0
	}
	if r > MaxScore {
		return MaxScore
	}
	return int(r)
}

// ScaleTo90 maps x from [min,max] onto [0,90]. A degenerate range means x is already on
// the target scale.
func ScaleTo90(x, min, max float64) int {
	if !isFinite(x) || !isFinite(min) || !isFinite(max) {
		return 0
	}
	if min == max {
		return ClampTo90(x)
	}
	return ClampTo90((x - min) / (max - min) * MaxScore)
}

// AccuracyTo90 maps an accuracy onto [0,90]. With isPercentage the input is 0-100,
// otherwise a 0-1 fraction. Prefer FractionTo90 or PercentTo90 at call sites.
func AccuracyTo90(accuracy float64, isPercentage bool) int {
	if !isFinite(accuracy) {
		return 0
	}
	if isPercentage {
		accuracy /= 100
	}
	return ClampTo90(accuracy * MaxScore)
}

// FractionTo90 maps a 0-1 fraction onto [0,90].
func FractionTo90(fraction float64) int {
	return AccuracyTo90(fraction, false)
}

// PercentTo90 maps a 0-100 percentage onto [0,90].
func PercentTo90(percent float64) int {
	return AccuracyTo90(percent, true)
}

// WerTo90 converts a word error rate into a score. wer=0 gives 90 and wer=1 gives 30;
// beyond 1 the score keeps falling until it reaches 0.
func WerTo90(wer float64) int {
	if !isFinite(wer) {
		return 0
	}
	if wer < 0 {
		wer = 0
	}
	if wer <= 1 {
		return ClampTo90(MaxScore - wer*60)
	}
	return ClampTo90(30 - (wer-1)*20)
}

// WeightedOverall combines subscores into one score. Without weights it is the plain mean.
// With weights only keys present in both maps count, and non-positive weights are
// ignored. If no usable weight remains it falls back to the mean of the weighted keys.
func WeightedOverall(subscores map[string]int, weights map[string]float64) int {
	if len(subscores) == 0 {
		return 0
	}
	if len(weights) == 0 {
		return meanOf(subscores, nil)
	}

	var sum, total float64
	var withWeight []string
	for _, k := range sortedKeys(weights) {
		s, ok := subscores[k]
		if !ok {
			continue
		}
		withWeight = append(withWeight, k)
		w := weights[k]
		if !isFinite(w) || w <= 0 {
			continue
		}
		sum += float64(s) * w
		total += w
	}
	if total == 0 {
		if len(withWeight) == 0 {
			return 0
		}
		return meanOf(subscores, withWeight)
	}
	return ClampTo90(sum / total)
}

// NormalizeSubscores puts every reported dimension on the 0-90 scale. Values already in
// range pass through, values above 90 are read as 0-100, and custom scalers win over both.
func NormalizeSubscores(raw map[string]float64, scalers map[string]Scaler) map[string]int {
	out := make(map[string]int, len(raw))
	for k, v := range raw {
		if sc, ok := scalers[k]; ok {
			out[k] = ScaleTo90(v, sc.Min, sc.Max)
			continue
		}
		if isFinite(v) && v > MaxScore {
			out[k] = ScaleTo90(v, 0, 100)
			continue
		}
		out[k] = ClampTo90(v)
	}
	return out
}

// ===== RUBRIC HELPERS =====

// ClampTo5 rounds to one decimal and clamps to the 0-5 rubric range.
func ClampTo5(x float64) float64 {
	if !isFinite(x) {
		return 0
	}
	r := roundHalfUp(x*10) / 10
	return math.Max(0, math.Min(5, r))
}

// RubricTo90 converts a 0-5 rubric score to the 0-90 scale.
func RubricTo90(score float64) int {
	return ClampTo90(score / 5 * MaxScore)
}

// ScoreTo5 converts a 0-90 score to the 0-5 rubric scale.
func ScoreTo5(score float64) float64 {
	return ClampTo5(score / MaxScore * 5)
}

// CalculatePercentage returns value/total as a rounded percentage.
func CalculatePercentage(value, total int) int {
	if total == 0 {
		return 0
	}
	return int(roundHalfUp(float64(value) / float64(total) * 100))
}

func meanOf(subscores map[string]int, keys []string) int {
	if keys == nil {
		keys = sortedKeys(subscores)
	}
	if len(keys) == 0 {
		return 0
	}
	var sum float64
	for _, k := range keys {
		sum += float64(subscores[k])
	}
	return ClampTo90(sum / float64(len(keys)))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
