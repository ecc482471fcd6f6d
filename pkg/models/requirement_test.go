package models

import "testing"

func TestHardConstraintsSatisfiedBy(t *testing.T) {
	caps := AgentCapabilities{
		Tools:          []string{"docker", "terraform"},
		Certifications: []string{"cka"},
		ComplianceTags: []string{"soc2", "gdpr"},
	}

	tests := []struct {
		name string
		hard HardConstraints
		want bool
	}{
		{"no constraints", HardConstraints{}, true},
		{"all satisfied", HardConstraints{MustTools: []string{"docker"}, MustCertifications: []string{"cka"}, MustCompliance: []string{"gdpr"}}, true},
		{"missing tool", HardConstraints{MustTools: []string{"kubectl"}}, false},
		{"missing certification", HardConstraints{MustCertifications: []string{"ckad"}}, false},
		{"missing compliance", HardConstraints{MustCompliance: []string{"hipaa"}}, false},
		{"one of several missing", HardConstraints{MustTools: []string{"docker", "kubectl"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.hard.SatisfiedBy(caps); got != tt.want {
				t.Errorf("SatisfiedBy = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHardConstraintsEmpty(t *testing.T) {
	if !(HardConstraints{}).Empty() {
		t.Error("expected zero-value constraints to be empty")
	}
	if (HardConstraints{MustTools: []string{"docker"}}).Empty() {
		t.Error("expected non-empty constraints")
	}
}

func TestRequirementFieldSet(t *testing.T) {
	req := &Requirement{
		Skills:  []string{"go"},
		Domains: []string{"payments"},
	}

	if got := req.FieldSet(FieldSkills); len(got) != 1 || got[0] != "go" {
		t.Errorf("FieldSet(skills) = %v", got)
	}
	if got := req.FieldSet(FieldTools); len(got) != 0 {
		t.Errorf("expected empty tools set, got %v", got)
	}
	if got := req.FieldSet("unknown"); got != nil {
		t.Errorf("expected nil for unknown field, got %v", got)
	}
}
