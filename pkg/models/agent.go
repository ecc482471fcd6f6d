// Package models defines the shared value types for agent selection and
// round orchestration.
package models

import "time"

// AgentCapabilities describes what an agent has declared it can do.
type AgentCapabilities struct {
	// Skills is the set of declared skills (e.g., "go", "api-design").
	Skills []string `json:"skills,omitempty" yaml:"skills,omitempty"`
	// Tools is the set of tools the agent can operate.
	Tools []string `json:"tools,omitempty" yaml:"tools,omitempty"`
	// Domains is the set of business or technical domains.
	Domains []string `json:"domains,omitempty" yaml:"domains,omitempty"`
	// Languages is the set of programming or natural languages.
	Languages []string `json:"languages,omitempty" yaml:"languages,omitempty"`
	// Regions is the set of regions the agent may serve.
	Regions []string `json:"regions,omitempty" yaml:"regions,omitempty"`
	// ComplianceTags is the set of compliance regimes the agent satisfies.
	ComplianceTags []string `json:"compliance_tags,omitempty" yaml:"compliance_tags,omitempty"`
	// Certifications is the set of certifications the agent holds.
	Certifications []string `json:"certifications,omitempty" yaml:"certifications,omitempty"`
	// Description is free text describing the agent's strengths.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// SimilarCases summarizes past work resembling typical requirements.
	SimilarCases []string `json:"similar_cases,omitempty" yaml:"similar_cases,omitempty"`
}

// StaticScore holds the context-independent score components of an agent.
// All components are expected to be in [0,1].
type StaticScore struct {
	// Performance measures historical delivery quality.
	Performance float64 `json:"performance" yaml:"performance"`
	// Brand measures organizational reputation.
	Brand float64 `json:"brand" yaml:"brand"`
	// Recognition measures external recognition (reviews, references).
	Recognition float64 `json:"recognition" yaml:"recognition"`
}

// AgentProfile is the durable record of one registered agent.
// Profiles are never deleted while referenced by historical decisions;
// they are deactivated instead.
type AgentProfile struct {
	// AgentID is the unique identifier for this agent.
	AgentID string `json:"agent_id" yaml:"agent_id"`
	// Name is the human-readable agent name.
	Name string `json:"name" yaml:"name"`
	// Role is the agent's declared primary role.
	Role string `json:"role,omitempty" yaml:"role,omitempty"`
	// Capabilities are the agent's declared capabilities.
	Capabilities AgentCapabilities `json:"capabilities" yaml:"capabilities"`
	// Static holds the static score components.
	Static StaticScore `json:"static" yaml:"static"`
	// Faults is the append-only ledger of past failures.
	Faults FaultLedger `json:"faults,omitempty" yaml:"faults,omitempty"`
	// ColdStart marks a newly registered agent with no track record.
	ColdStart bool `json:"cold_start" yaml:"cold_start"`
	// Active is false once the agent has been deactivated.
	Active bool `json:"active" yaml:"active"`
	// LastSuccessAt is the time of the agent's most recent successful run.
	LastSuccessAt *time.Time `json:"last_success_at,omitempty" yaml:"last_success_at,omitempty"`
	// RegisteredAt is when the agent was registered.
	RegisteredAt time.Time `json:"registered_at" yaml:"registered_at"`
}

// ActiveFaults returns the number of fault records still inside their
// cooling window at the given time.
func (p *AgentProfile) ActiveFaults(now time.Time) int {
	return p.Faults.ActiveCount(now)
}
