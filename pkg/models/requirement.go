package models

// Capability field names used for fit weighting and breakdowns.
const (
	FieldSkills         = "skills"
	FieldTools          = "tools"
	FieldDomains        = "domains"
	FieldLanguages      = "languages"
	FieldRegions        = "regions"
	FieldComplianceTags = "compliance_tags"
	FieldDescription    = "description"
)

// HardConstraints are requirement conditions that exclude a candidate
// outright when unmet. A candidate failing any of these is never scored.
type HardConstraints struct {
	// MustTools are tools the candidate must operate.
	MustTools []string `json:"must_tools,omitempty"`
	// MustCertifications are certifications the candidate must hold.
	MustCertifications []string `json:"must_certifications,omitempty"`
	// MustCompliance are compliance tags the candidate must carry.
	MustCompliance []string `json:"must_compliance,omitempty"`
}

// SatisfiedBy returns true if the capabilities contain every must-have
// entry. Matching is literal (no canonicalization for hard constraints).
func (h HardConstraints) SatisfiedBy(caps AgentCapabilities) bool {
	return containsAll(caps.Tools, h.MustTools) &&
		containsAll(caps.Certifications, h.MustCertifications) &&
		containsAll(caps.ComplianceTags, h.MustCompliance)
}

// Empty returns true when no constraint is set.
func (h HardConstraints) Empty() bool {
	return len(h.MustTools) == 0 && len(h.MustCertifications) == 0 && len(h.MustCompliance) == 0
}

func containsAll(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]bool, len(have))
	for _, v := range have {
		set[v] = true
	}
	for _, v := range want {
		if !set[v] {
			return false
		}
	}
	return true
}

// Requirement describes the needs of one unit of work for agent selection.
// Requirements are immutable during scoring.
type Requirement struct {
	// Skills are the required skills.
	Skills []string `json:"skills,omitempty"`
	// Tools are the required tools.
	Tools []string `json:"tools,omitempty"`
	// Domains are the required domains.
	Domains []string `json:"domains,omitempty"`
	// Languages are the required languages.
	Languages []string `json:"languages,omitempty"`
	// Regions are the required regions.
	Regions []string `json:"regions,omitempty"`
	// ComplianceTags are the required compliance regimes.
	ComplianceTags []string `json:"compliance_tags,omitempty"`
	// Hard are the must-have constraints; failing any excludes a candidate.
	Hard HardConstraints `json:"hard,omitempty"`
	// WeightOverrides replaces the default per-field weights. The merged
	// weight set must sum to a positive value.
	WeightOverrides map[string]float64 `json:"weight_overrides,omitempty"`
	// Notes is free text describing the requirement.
	Notes string `json:"notes,omitempty"`
}

// FieldSet returns the requirement values for a named capability field.
func (r *Requirement) FieldSet(field string) []string {
	switch field {
	case FieldSkills:
		return r.Skills
	case FieldTools:
		return r.Tools
	case FieldDomains:
		return r.Domains
	case FieldLanguages:
		return r.Languages
	case FieldRegions:
		return r.Regions
	case FieldComplianceTags:
		return r.ComplianceTags
	default:
		return nil
	}
}

// CapabilityFieldSet returns the capability values for a named field.
func CapabilityFieldSet(caps AgentCapabilities, field string) []string {
	switch field {
	case FieldSkills:
		return caps.Skills
	case FieldTools:
		return caps.Tools
	case FieldDomains:
		return caps.Domains
	case FieldLanguages:
		return caps.Languages
	case FieldRegions:
		return caps.Regions
	case FieldComplianceTags:
		return caps.ComplianceTags
	default:
		return nil
	}
}

// RoleRequirement scopes a requirement to one team role. The role's fixed
// skill set takes priority over the raw requirement's combined skills so a
// wide requirement does not dilute per-role fit.
type RoleRequirement struct {
	// Role is the team role name.
	Role string `json:"role"`
	// Required marks whether the team needs this role to proceed.
	Required bool `json:"required"`
	// Requirement is the role-scoped requirement passed to the selector.
	Requirement Requirement `json:"requirement"`
}
