package selection

import (
	"context"
	"fmt"

	"github.com/Hiveagents-ones/HiveCore-sub002/pkg/models"
)

// CollabMode describes how a team's members coordinate.
type CollabMode string

const (
	// CollabSingle means one agent handles the requirement alone.
	CollabSingle CollabMode = "single"
	// CollabSequential means members hand work off in role order.
	CollabSequential CollabMode = "sequential"
	// CollabParallel means members work concurrently.
	CollabParallel CollabMode = "parallel"
	// CollabIterative means members loop until acceptance.
	CollabIterative CollabMode = "iterative"
)

// Valid returns true if the mode is a known value.
func (m CollabMode) Valid() bool {
	switch m {
	case CollabSingle, CollabSequential, CollabParallel, CollabIterative:
		return true
	default:
		return false
	}
}

// TeamAnalysis is the advisory answer from a role-inference strategy.
type TeamAnalysis struct {
	// Complexity is the strategy's complexity estimate.
	Complexity string `json:"complexity"`
	// NeedsCollaboration is whether a multi-agent team is recommended.
	NeedsCollaboration bool `json:"needs_collaboration"`
	// RequiredRoles are roles the team cannot do without.
	RequiredRoles []string `json:"required_roles"`
	// OptionalRoles are roles worth staffing if candidates exist.
	OptionalRoles []string `json:"optional_roles"`
	// Mode is the recommended collaboration mode.
	Mode CollabMode `json:"collaboration_mode"`
	// Reasoning is the strategy's explanation.
	Reasoning string `json:"reasoning"`
}

// Validate rejects malformed strategy answers. A malformed answer triggers
// the single-agent fallback, never an orchestration failure.
func (a *TeamAnalysis) Validate() error {
	if a == nil {
		return fmt.Errorf("nil analysis")
	}
	if !a.Mode.Valid() {
		return fmt.Errorf("unknown collaboration mode %q", a.Mode)
	}
	if a.NeedsCollaboration && len(a.RequiredRoles) == 0 {
		return fmt.Errorf("collaboration requested without required roles")
	}
	return nil
}

// Strategy is the pluggable advisory component deciding team composition.
// Implementations may be unavailable or fail; the composer always falls
// back to single-agent selection in that case.
type Strategy interface {
	Analyze(ctx context.Context, requirementID, requirementText string, skills []string) (*TeamAnalysis, error)
}

// TeamMember is one staffed role in a team selection.
type TeamMember struct {
	// Role is the team role this member fills.
	Role string `json:"role"`
	// AgentID is the assigned agent.
	AgentID string `json:"agent_id"`
	// Required is whether the role was required (vs optional).
	Required bool `json:"required"`
	// Ranking is the member's selection ranking.
	Ranking *CandidateRanking `json:"ranking,omitempty"`
}

// TeamSelection is the result of composing a team for one requirement.
type TeamSelection struct {
	// RequirementID identifies the requirement.
	RequirementID string `json:"requirement_id"`
	// Mode is how the team coordinates.
	Mode CollabMode `json:"mode"`
	// Members are the staffed roles. An empty member list means the sole
	// required role had no eligible candidate and the requirement is
	// blocked pending a new agent spec.
	Members []TeamMember `json:"members"`
	// Reasoning carries the strategy's explanation, when one was used.
	Reasoning string `json:"reasoning,omitempty"`
}

// Empty reports that no role could be staffed.
func (t *TeamSelection) Empty() bool {
	return len(t.Members) == 0
}

// Lead returns the first staffed member, or nil for an empty team.
func (t *TeamSelection) Lead() *TeamMember {
	if len(t.Members) == 0 {
		return nil
	}
	return &t.Members[0]
}

// Composer decides whether one agent suffices for a requirement or a small
// team with defined roles is needed, invoking the selector per role.
type Composer struct {
	selector   *Selector
	strategy   Strategy
	multiAgent bool
}

// NewComposer creates a team composer. A nil strategy or disabled
// multi-agent mode always yields single-agent teams.
func NewComposer(selector *Selector, strategy Strategy, multiAgent bool) *Composer {
	return &Composer{selector: selector, strategy: strategy, multiAgent: multiAgent}
}

// SelectTeam composes a team for the requirement. The advisory strategy is
// consulted only in multi-agent mode; any strategy failure or malformed
// answer falls back to single-agent selection so an unavailable advisory
// component never blocks the core path.
func (c *Composer) SelectTeam(ctx context.Context, requirementID string, req *models.Requirement, candidates []*models.AgentProfile) (*TeamSelection, error) {
	if !c.multiAgent || c.strategy == nil {
		return c.singleAgent(requirementID, req, candidates)
	}

	analysis, err := c.strategy.Analyze(ctx, requirementID, req.Notes, req.Skills)
	if err != nil {
		return c.singleAgent(requirementID, req, candidates)
	}
	if err := analysis.Validate(); err != nil {
		return c.singleAgent(requirementID, req, candidates)
	}
	if !analysis.NeedsCollaboration {
		team, err := c.singleAgent(requirementID, req, candidates)
		if err == nil {
			team.Reasoning = analysis.Reasoning
		}
		return team, err
	}

	team := &TeamSelection{
		RequirementID: requirementID,
		Mode:          analysis.Mode,
		Reasoning:     analysis.Reasoning,
	}

	var assigned []string
	staff := func(role string, required bool) error {
		roleReq := roleScopedRequirement(req, role)
		decision, err := c.selector.Select(&roleReq.Requirement, candidates, 0, SelectOptions{
			RequirementID: requirementID,
			Exclude:       assigned,
		})
		if err != nil {
			return err
		}
		if !decision.Selected() {
			// Roles with no eligible candidate are omitted, not errors.
			return nil
		}
		member := TeamMember{Role: role, AgentID: decision.SelectedAgentID, Required: required}
		for i := range decision.Ranked {
			if decision.Ranked[i].AgentID == decision.SelectedAgentID {
				member.Ranking = &decision.Ranked[i]
				break
			}
		}
		team.Members = append(team.Members, member)
		assigned = append(assigned, decision.SelectedAgentID)
		return nil
	}

	for _, role := range analysis.RequiredRoles {
		if err := staff(role, true); err != nil {
			return nil, err
		}
	}
	for _, role := range analysis.OptionalRoles {
		if err := staff(role, false); err != nil {
			return nil, err
		}
	}

	return team, nil
}

// singleAgent selects the best overall fit and infers its role from skill
// overlap with the fixed role table.
func (c *Composer) singleAgent(requirementID string, req *models.Requirement, candidates []*models.AgentProfile) (*TeamSelection, error) {
	decision, err := c.selector.Select(req, candidates, 0, SelectOptions{RequirementID: requirementID})
	if err != nil {
		return nil, err
	}

	team := &TeamSelection{RequirementID: requirementID, Mode: CollabSingle}
	if !decision.Selected() {
		return team, nil
	}

	member := TeamMember{
		Role:     InferRole(req.Skills),
		AgentID:  decision.SelectedAgentID,
		Required: true,
	}
	for i := range decision.Ranked {
		if decision.Ranked[i].AgentID == decision.SelectedAgentID {
			member.Ranking = &decision.Ranked[i]
			break
		}
	}
	team.Members = append(team.Members, member)
	return team, nil
}

// roleScopedRequirement builds the requirement handed to the selector for
// one role. The role's fixed skill set replaces the raw requirement's
// combined skills when the role is known; everything else carries over.
func roleScopedRequirement(req *models.Requirement, role string) *models.RoleRequirement {
	scoped := *req
	if skills := RoleSkills(role); len(skills) > 0 {
		scoped.Skills = skills
	}
	return &models.RoleRequirement{
		Role:        role,
		Required:    true,
		Requirement: scoped,
	}
}
