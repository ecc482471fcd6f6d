// Package decompose turns a project specification into executable requirements.
package decompose

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Hiveagents-ones/HiveCore-sub002/pkg/models"
)

// Decomposer produces the requirement list for a round from free-form
// request text. Implementations may parse a structured spec file or call
// out to a planner; the orchestrator only sees the parsed result.
type Decomposer interface {
	Decompose(ctx context.Context, request string) (*ParsedSpec, error)
}

// RequirementType classifies what kind of work a requirement is.
type RequirementType string

const (
	TypeFeature RequirementType = "feature"
	TypeFix     RequirementType = "fix"
	TypeChore   RequirementType = "chore"
	TypeDoc     RequirementType = "doc"
)

// Valid returns true for a known requirement type. Empty defaults to feature.
func (t RequirementType) Valid() bool {
	switch t {
	case "", TypeFeature, TypeFix, TypeChore, TypeDoc:
		return true
	default:
		return false
	}
}

// SpecRequirement is one requirement parsed from a project spec.
type SpecRequirement struct {
	ID         string          `yaml:"id"`
	Title      string          `yaml:"title"`
	Content    string          `yaml:"content"`
	Type       RequirementType `yaml:"type,omitempty"`
	DependsOn  []string        `yaml:"depends_on,omitempty"`
	Acceptance []string        `yaml:"acceptance,omitempty"`

	// Capability hints used for agent selection.
	Skills     []string `yaml:"skills,omitempty"`
	Tools      []string `yaml:"tools,omitempty"`
	Domains    []string `yaml:"domains,omitempty"`
	Languages  []string `yaml:"languages,omitempty"`
	Regions    []string `yaml:"regions,omitempty"`
	Compliance []string `yaml:"compliance,omitempty"`

	// Hard constraints; a candidate missing any is excluded outright.
	MustTools          []string `yaml:"must_tools,omitempty"`
	MustCertifications []string `yaml:"must_certifications,omitempty"`
	MustCompliance     []string `yaml:"must_compliance,omitempty"`

	// WeightOverrides adjusts fit field weights for this requirement.
	WeightOverrides map[string]float64 `yaml:"weight_overrides,omitempty"`
}

// Requirement maps the spec entry onto the selection model. Content doubles
// as the free-text notes driving the description bonus.
func (r *SpecRequirement) Requirement() *models.Requirement {
	return &models.Requirement{
		Skills:         r.Skills,
		Tools:          r.Tools,
		Domains:        r.Domains,
		Languages:      r.Languages,
		Regions:        r.Regions,
		ComplianceTags: r.Compliance,
		Hard: models.HardConstraints{
			MustTools:          r.MustTools,
			MustCertifications: r.MustCertifications,
			MustCompliance:     r.MustCompliance,
		},
		WeightOverrides: r.WeightOverrides,
		Notes:           r.Content,
	}
}

// ParsedSpec is a fully parsed project specification.
type ParsedSpec struct {
	Project      string            `yaml:"project"`
	Title        string            `yaml:"title"`
	Requirements []SpecRequirement `yaml:"requirements"`
}

// IDs returns the requirement IDs in spec order.
func (s *ParsedSpec) IDs() []string {
	ids := make([]string, len(s.Requirements))
	for i, r := range s.Requirements {
		ids[i] = r.ID
	}
	return ids
}

// Dependencies returns the dependency map keyed by requirement ID.
func (s *ParsedSpec) Dependencies() map[string][]string {
	deps := make(map[string][]string, len(s.Requirements))
	for _, r := range s.Requirements {
		deps[r.ID] = r.DependsOn
	}
	return deps
}

// ByID returns the requirement with the given ID, or nil.
func (s *ParsedSpec) ByID(id string) *SpecRequirement {
	for i := range s.Requirements {
		if s.Requirements[i].ID == id {
			return &s.Requirements[i]
		}
	}
	return nil
}

// SingleRequirement wraps free-form request text as a one-requirement spec.
// Used when no structured spec file is configured.
func SingleRequirement(request string) *ParsedSpec {
	title := request
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = title[:idx]
	}
	if len(title) > 80 {
		title = title[:80]
	}
	return &ParsedSpec{
		Requirements: []SpecRequirement{{
			ID:      shortID(),
			Title:   strings.TrimSpace(title),
			Content: request,
		}},
	}
}

// shortID returns an 8-char requirement ID.
func shortID() string {
	return "req-" + uuid.New().String()[:8]
}
