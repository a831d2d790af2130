package models

import (
	"encoding/json"
	"math"
)

// ScoringResult is the canonical output of every grader. All numbers are integers on the
// 0-90 scale.
type ScoringResult struct {
	Overall   int            `json:"overall"`
	Subscores map[string]int `json:"subscores"`
	Rationale string         `json:"rationale,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Clone returns a deep-enough copy so callers can hand results around without sharing maps.
func (r *ScoringResult) Clone() *ScoringResult {
	if r == nil {
		return nil
	}
	out := &ScoringResult{
		Overall:   r.Overall,
		Rationale: r.Rationale,
		Subscores: make(map[string]int, len(r.Subscores)),
	}
	for k, v := range r.Subscores {
		out.Subscores[k] = v
	}
	if r.Metadata != nil {
		out.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Provider returns metadata.provider when present.
func (r *ScoringResult) Provider() string {
	if r == nil || r.Metadata == nil {
		return ""
	}
	p, _ := r.Metadata["provider"].(string)
	return p
}

type ProviderMeta struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

// ProviderRawScore is one grader's answer before normalization. Subscores may be on a
// 0-90 or 0-100 scale.
type ProviderRawScore struct {
	Overall   *float64      `json:"overall,omitempty"`
	Subscores RawSubscores  `json:"subscores,omitempty"`
	Rationale string        `json:"rationale,omitempty"`
	Meta      *ProviderMeta `json:"meta,omitempty"`

	// Weight is how many graders this score already stands for. Zero means one.
	Weight int `json:"weight,omitempty"`
	// DimensionWeights and OverallWeight override Weight per dimension for a score that
	// was itself merged from graders reporting different dimensions.
	DimensionWeights map[string]int `json:"dimensionWeights,omitempty"`
	OverallWeight    int            `json:"overallWeight,omitempty"`
	// Merged lists the graders behind an already merged score.
	Merged []ProviderMeta `json:"merged,omitempty"`
}

// HasScores reports whether the grader returned any number at all.
func (p ProviderRawScore) HasScores() bool {
	return p.Overall != nil || len(p.Subscores) > 0
}

// EffectiveWeight returns Weight, treating unset or negative values as 1.
func (p ProviderRawScore) EffectiveWeight() float64 {
	if p.Weight < 1 {
		return 1
	}
	return float64(p.Weight)
}

// DimensionWeight is the weight of one subscore, falling back to EffectiveWeight.
func (p ProviderRawScore) DimensionWeight(key string) float64 {
	if w, ok := p.DimensionWeights[key]; ok && w > 0 {
		return float64(w)
	}
	return p.EffectiveWeight()
}

// OverallEffectiveWeight is the weight of Overall, falling back to EffectiveWeight.
func (p ProviderRawScore) OverallEffectiveWeight() float64 {
	if p.OverallWeight > 0 {
		return float64(p.OverallWeight)
	}
	return p.EffectiveWeight()
}

// RawSubscores keeps only reported numeric dimensions. A dimension that is absent was not
// reported, which is different from a reported 0.
type RawSubscores map[string]float64

// UnmarshalJSON drops null and non-numeric values instead of coercing them to zero.
func (s *RawSubscores) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(RawSubscores, len(raw))
	for k, v := range raw {
		f, ok := v.(float64)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		out[k] = f
	}
	*s = out
	return nil
}

// Float64 is a small helper for building optional numeric fields.
func Float64(v float64) *float64 {
	return &v
}
