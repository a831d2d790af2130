package scoring

import (
	"strings"

	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
)

const rationaleSeparator = "\n\n"

// RubricKeys lists the dimensions each section reports.
var RubricKeys = map[models.Section][]string{
	models.SectionSpeaking:  {"content", "pronunciation", "fluency", "grammar", "vocabulary"},
	models.SectionWriting:   {"content", "structure", "coherence", "grammar", "vocabulary", "spelling"},
	models.SectionReading:   {"correctness"},
	models.SectionListening: {"correctness", "wer"},
}

// ToTestSection maps loose section names ("speak", "WRITING", "listen") to a Section.
// Unknown input falls back to reading.
func ToTestSection(s string) models.Section {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(v, "speak"):
		return models.SectionSpeaking
	case strings.HasPrefix(v, "writ"):
		return models.SectionWriting
	case strings.HasPrefix(v, "listen"):
		return models.SectionListening
	default:
		return models.SectionReading
	}
}

// UnknownProvider stands in for a grader that did not identify itself.
const UnknownProvider = "unknown"

// MergeProviderScores reconciles several graders' raw scores for the same item. Each
// dimension is averaged over the providers that reported it. When no provider reported
// subscores the bare overall values are averaged instead.
func MergeProviderScores(inputs []models.ProviderRawScore, section models.Section) *models.ScoringResult {
	sums := make(map[string]float64)
	counts := make(map[string]float64)
	var overallSum, overallCount float64
	var rationales []string
	var represented int
	providers := make([]models.ProviderMeta, 0, len(inputs))

	for _, in := range inputs {
		w := in.EffectiveWeight()
		represented += int(w)
		for k, v := range in.Subscores {
			if !isFinite(v) {
				continue
			}
			wk := in.DimensionWeight(k)
			sums[k] += v * wk
			counts[k] += wk
		}
		if in.Overall != nil && isFinite(*in.Overall) {
			wo := in.OverallEffectiveWeight()
			overallSum += *in.Overall * wo
			overallCount += wo
		}
		if r := strings.TrimSpace(in.Rationale); r != "" {
			rationales = append(rationales, r)
		}
		providers = append(providers, providersOf(in)...)
	}

	dimensionCounts := make(map[string]int, len(counts))
	for k, c := range counts {
		dimensionCounts[k] = int(c)
	}

	result := &models.ScoringResult{
		Subscores: map[string]int{},
		Rationale: strings.Join(rationales, rationaleSeparator),
		Metadata: map[string]any{
			"providers":       providers,
			"providerCount":   represented,
			"dimensionCounts": dimensionCounts,
			"overallCount":    int(overallCount),
			"section":         string(section),
		},
	}

	if len(sums) == 0 {
		if overallCount > 0 {
			mean := overallSum / overallCount
			if mean > MaxScore {
				result.Overall = ScaleTo90(mean, 0, 100)
			} else {
				result.Overall = ClampTo90(mean)
			}
		}
		return result
	}

	averaged := make(map[string]float64, len(sums))
	for k, sum := range sums {
		averaged[k] = sum / counts[k]
	}
	result.Subscores = NormalizeSubscores(averaged, nil)
	result.Overall = WeightedOverall(result.Subscores, nil)
	return result
}

// providersOf returns one entry per grader the input stands for, so the providers list
// always has providerCount entries.
func providersOf(in models.ProviderRawScore) []models.ProviderMeta {
	if len(in.Merged) > 0 {
		return in.Merged
	}
	meta := models.ProviderMeta{Provider: UnknownProvider}
	if in.Meta != nil {
		meta = *in.Meta
	}
	out := make([]models.ProviderMeta, int(in.EffectiveWeight()))
	for i := range out {
		out[i] = meta
	}
	return out
}

// AsProviderRaw turns a merged result back into a raw score so it can be merged again
// with later graders. Each dimension keeps the number of graders that reported it.
func AsProviderRaw(r *models.ScoringResult) models.ProviderRawScore {
	if r == nil {
		return models.ProviderRawScore{}
	}
	raw := models.ProviderRawScore{Rationale: r.Rationale, Weight: 1}
	if n := metadataInt(r.Metadata["providerCount"]); n > 0 {
		raw.Weight = n
	}
	if providers, ok := r.Metadata["providers"].([]models.ProviderMeta); ok {
		raw.Merged = providers
	}
	if len(r.Subscores) > 0 {
		counts := metadataCounts(r.Metadata["dimensionCounts"])
		raw.Subscores = make(models.RawSubscores, len(r.Subscores))
		for k, v := range r.Subscores {
			raw.Subscores[k] = float64(v)
			if n, ok := counts[k]; ok && n > 0 {
				if raw.DimensionWeights == nil {
					raw.DimensionWeights = make(map[string]int, len(r.Subscores))
				}
				raw.DimensionWeights[k] = n
			}
		}
	} else {
		raw.Overall = models.Float64(float64(r.Overall))
		raw.OverallWeight = metadataInt(r.Metadata["overallCount"])
	}
	return raw
}

// metadataInt reads a count that may have been through a JSON round trip.
func metadataInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func metadataCounts(v any) map[string]int {
	switch m := v.(type) {
	case map[string]int:
		return m
	case map[string]any:
		out := make(map[string]int, len(m))
		for k, n := range m {
			out[k] = metadataInt(n)
		}
		return out
	default:
		return nil
	}
}

// CombineDeterministicAndLLM overlays an AI grader's result on the deterministic one.
// Deterministic subscores win on collision. A nil side passes the other through.
func CombineDeterministicAndLLM(det, llm *models.ScoringResult) *models.ScoringResult {
	switch {
	case det == nil && llm == nil:
		return &models.ScoringResult{Subscores: map[string]int{}}
	case llm == nil:
		return det.Clone()
	case det == nil:
		return llm.Clone()
	}

	subscores := make(map[string]int, len(det.Subscores)+len(llm.Subscores))
	for k, v := range llm.Subscores {
		subscores[k] = v
	}
	for k, v := range det.Subscores {
		subscores[k] = v
	}

	var parts []string
	if det.Rationale != "" {
		parts = append(parts, "Deterministic: "+det.Rationale)
	}
	if llm.Rationale != "" {
		parts = append(parts, "LLM: "+llm.Rationale)
	}

	metadata := map[string]any{
		"provider": "combined",
		"sources": map[string]any{
			"deterministic": det.Metadata,
			"llm":           llm.Metadata,
		},
	}
	return &models.ScoringResult{
		Overall:   WeightedOverall(subscores, nil),
		Subscores: subscores,
		Rationale: strings.Join(parts, rationaleSeparator),
		Metadata:  metadata,
	}
}

// DeterministicInput feeds BuildDeterministicResult. Accuracy is a 0-1 fraction and
// AccuracyPct a 0-100 percentage; set at most one of them.
type DeterministicInput struct {
	Section     models.Section
	Accuracy    *float64
	AccuracyPct *float64
	WER         *float64
	Rationale   string
}

// BuildDeterministicResult turns section-level measurements into a result. Accuracy feeds
// the correctness subscore and WER the wer subscore; both may be present.
func BuildDeterministicResult(in DeterministicInput) *models.ScoringResult {
	subscores := map[string]int{}
	switch {
	case in.Accuracy != nil:
		subscores["correctness"] = FractionTo90(*in.Accuracy)
	case in.AccuracyPct != nil:
		subscores["correctness"] = PercentTo90(*in.AccuracyPct)
	}
	if in.WER != nil {
		subscores["wer"] = WerTo90(*in.WER)
	}
	return &models.ScoringResult{
		Overall:   WeightedOverall(subscores, nil),
		Subscores: subscores,
		Rationale: in.Rationale,
		Metadata: map[string]any{
			"provider": ProviderDeterministic,
			"section":  string(in.Section),
		},
	}
}
