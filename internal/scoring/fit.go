package scoring

import (
	"fmt"
	"sort"

	"github.com/Hiveagents-ones/HiveCore-sub002/pkg/models"
)

// fitFields are the capability fields tracked by the fit scorer, in
// evaluation order.
var fitFields = []string{
	models.FieldSkills,
	models.FieldTools,
	models.FieldDomains,
	models.FieldLanguages,
	models.FieldRegions,
	models.FieldComplianceTags,
}

// canonicalFields are the fields passed through the synonym table before
// intersection. All other fields match literally.
var canonicalFields = map[string]bool{
	models.FieldSkills:  true,
	models.FieldDomains: true,
}

// FieldWeights maps capability field names to fit weights.
type FieldWeights map[string]float64

// DefaultFieldWeights returns the standard per-field fit weighting.
// The description weight enables the keyword-overlap bonus.
func DefaultFieldWeights() FieldWeights {
	return FieldWeights{
		models.FieldSkills:         0.35,
		models.FieldTools:          0.15,
		models.FieldDomains:        0.20,
		models.FieldLanguages:      0.10,
		models.FieldRegions:        0.05,
		models.FieldComplianceTags: 0.05,
		models.FieldDescription:    0.10,
	}
}

// FieldMatch holds the intersection detail for one capability field.
type FieldMatch struct {
	// Weight is the normalized weight this field contributed with.
	Weight float64 `json:"weight"`
	// Coverage is |req ∩ cap| / |req| for this field.
	Coverage float64 `json:"coverage"`
	// Matched lists requirement values the capabilities satisfy.
	Matched []string `json:"matched,omitempty"`
	// Missing lists requirement values the capabilities lack.
	Missing []string `json:"missing,omitempty"`
}

// FitBreakdown is the result of scoring one agent against one requirement.
// Matched/missing sets and rationale are always populated; downstream risk
// notes depend on the Missing sets.
type FitBreakdown struct {
	// Score is the total weighted fit in [0,1].
	Score float64 `json:"score"`
	// Fields maps field names to their match detail.
	Fields map[string]FieldMatch `json:"fields"`
	// DescriptionBonus is the keyword-overlap contribution, if any.
	DescriptionBonus float64 `json:"description_bonus,omitempty"`
	// Rationale holds human-readable scoring notes for auditability.
	Rationale []string `json:"rationale,omitempty"`
}

// Missing returns every missing requirement value across all fields,
// prefixed with the field name, in deterministic order.
func (b *FitBreakdown) Missing() []string {
	var out []string
	names := make([]string, 0, len(b.Fields))
	for name := range b.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range b.Fields[name].Missing {
			out = append(out, name+":"+v)
		}
	}
	return out
}

// FitScorer computes how well an agent's capabilities satisfy one
// requirement's weighted fields.
type FitScorer struct {
	weights FieldWeights
}

// NewFitScorer creates a FitScorer with the given default field weights.
// Nil weights use the standard defaults.
func NewFitScorer(weights FieldWeights) *FitScorer {
	if weights == nil {
		weights = DefaultFieldWeights()
	}
	return &FitScorer{weights: weights}
}

// Fit scores the capabilities against the requirement. Default weights are
// merged with per-requirement overrides and renormalized to sum to 1;
// fields with an empty requirement set are excluded from the weighted sum
// entirely. Returns ErrBadWeights when the merged weights are not positive.
func (s *FitScorer) Fit(req *models.Requirement, caps models.AgentCapabilities) (*FitBreakdown, error) {
	merged := make(FieldWeights, len(s.weights))
	for field, w := range s.weights {
		merged[field] = w
	}
	for field, w := range req.WeightOverrides {
		merged[field] = w
	}

	// Only fields the requirement actually constrains participate.
	descWeight := merged[models.FieldDescription]
	useDescription := descWeight > 0 && req.Notes != "" && caps.Description != ""

	var activeTotal float64
	active := make([]string, 0, len(fitFields))
	for _, field := range fitFields {
		if len(req.FieldSet(field)) == 0 {
			continue
		}
		active = append(active, field)
		activeTotal += merged[field]
	}
	if useDescription {
		activeTotal += descWeight
	}

	if len(active) == 0 && !useDescription {
		return &FitBreakdown{
			Fields:    map[string]FieldMatch{},
			Rationale: []string{"requirement constrains no capability fields"},
		}, nil
	}
	if activeTotal <= 0 {
		return nil, fmt.Errorf("fit score: %w", ErrBadWeights)
	}

	breakdown := &FitBreakdown{Fields: make(map[string]FieldMatch, len(active))}

	for _, field := range active {
		reqSet := req.FieldSet(field)
		capSet := models.CapabilityFieldSet(caps, field)
		if canonicalFields[field] {
			reqSet = CanonicalSet(reqSet)
			capSet = CanonicalSet(capSet)
		}

		matched, missing := intersect(reqSet, capSet)
		coverage := float64(len(matched)) / float64(len(reqSet))
		weight := merged[field] / activeTotal

		breakdown.Fields[field] = FieldMatch{
			Weight:   weight,
			Coverage: coverage,
			Matched:  matched,
			Missing:  missing,
		}
		breakdown.Score += weight * coverage
		breakdown.Rationale = append(breakdown.Rationale,
			fmt.Sprintf("%s: %d/%d matched (weight %.2f)", field, len(matched), len(reqSet), weight))
	}

	if useDescription {
		reqTokens := Tokenize(req.Notes)
		capTokens := Tokenize(caps.Description)
		bonus := overlapRatio(reqTokens, capTokens)
		weight := descWeight / activeTotal
		breakdown.DescriptionBonus = weight * bonus
		breakdown.Score += breakdown.DescriptionBonus
		breakdown.Rationale = append(breakdown.Rationale,
			fmt.Sprintf("description: %.0f%% keyword overlap (weight %.2f)", bonus*100, weight))
	}

	breakdown.Score = clamp01(breakdown.Score)
	return breakdown, nil
}

// intersect splits the requirement set into matched and missing values,
// preserving requirement order.
func intersect(reqSet, capSet []string) (matched, missing []string) {
	have := make(map[string]bool, len(capSet))
	for _, v := range capSet {
		have[v] = true
	}
	for _, v := range reqSet {
		if have[v] {
			matched = append(matched, v)
		} else {
			missing = append(missing, v)
		}
	}
	return matched, missing
}
