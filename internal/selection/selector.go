// Package selection ranks agents against requirements and composes teams.
package selection

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/scoring"
	"github.com/Hiveagents-ones/HiveCore-sub002/pkg/models"
)

// ErrInvalidOverride indicates a user override naming an agent that is not
// in the ranked page.
var ErrInvalidOverride = errors.New("override agent is not in the ranked candidate page")

// Policy configures selection behavior.
type Policy struct {
	// TopN is the page size when slicing ranked candidates.
	TopN int
	// RequirementWeight scales the fit score when combined with S_base.
	RequirementWeight float64
	// ColdStartQuota is how many cold-start candidates per call receive
	// the trial bonus. Cold-start candidates beyond the quota are penalized.
	ColdStartQuota int
	// ColdStartBonus is added to a cold-start candidate holding a quota slot.
	ColdStartBonus float64
	// ColdStartPenalty is subtracted from cold-start candidates past the quota.
	ColdStartPenalty float64
	// MinFitThreshold discards the system pick when its fit score is lower,
	// signalling that a new agent spec should be spawned instead.
	MinFitThreshold float64
	// Base are the static score weights.
	Base scoring.BaseWeights
}

// DefaultPolicy returns the standard selection policy.
func DefaultPolicy() Policy {
	return Policy{
		TopN:              5,
		RequirementWeight: 1.0,
		ColdStartQuota:    1,
		ColdStartBonus:    0.05,
		ColdStartPenalty:  0.05,
		MinFitThreshold:   0.3,
		Base:              scoring.DefaultBaseWeights(),
	}
}

// CandidateRanking is one agent's scored position in a selection round.
type CandidateRanking struct {
	// AgentID identifies the ranked agent.
	AgentID string `json:"agent_id"`
	// SBase is the agent's static trust score at decision time.
	SBase float64 `json:"s_base"`
	// Fit is the requirement fit breakdown.
	Fit *scoring.FitBreakdown `json:"fit"`
	// Combined is s_base + requirement_weight × fit score, adjusted by
	// cold-start bonus or penalty.
	Combined float64 `json:"combined"`
	// ColdStartReserved is true when this candidate holds a trial slot.
	ColdStartReserved bool `json:"cold_start_reserved,omitempty"`
	// ActiveFaults is the agent's active fault count at decision time.
	ActiveFaults int `json:"active_faults"`
	// RiskNotes flags gaps a caller should be aware of.
	RiskNotes []string `json:"risk_notes,omitempty"`

	profile *models.AgentProfile
}

// Decision is the outcome of one selection call.
type Decision struct {
	// RequirementID identifies the requirement, when provided.
	RequirementID string `json:"requirement_id,omitempty"`
	// BatchIndex is the candidate page that was ranked.
	BatchIndex int `json:"batch_index"`
	// Ranked holds the page's candidates in final order. Empty when no
	// candidate survived hard filtering or the page is out of range.
	Ranked []CandidateRanking `json:"ranked"`
	// SelectedAgentID is the pick. Empty when the decision is empty or the
	// best fit fell below the minimum threshold.
	SelectedAgentID string `json:"selected_agent_id,omitempty"`
	// Source records whether the system or a user made the pick.
	Source DecisionSource `json:"source"`
}

// Empty reports that no candidate survived hard filtering or pagination.
// This is the signal to spawn a new agent, not an error.
func (d *Decision) Empty() bool {
	return len(d.Ranked) == 0
}

// Selected reports whether the decision carries a usable pick.
func (d *Decision) Selected() bool {
	return d.SelectedAgentID != ""
}

// SelectOptions are per-call selection inputs.
type SelectOptions struct {
	// RequirementID tags the audit record.
	RequirementID string
	// Override, when set, replaces the system pick with the named agent.
	// The agent must appear in the ranked page.
	Override string
	// Exclude drops the named agents before ranking (e.g., agents already
	// assigned within a team).
	Exclude []string
	// Now is the decision time. Zero means time.Now().
	Now time.Time
}

// Selector hard-filters, scores, ranks and paginates candidates for a
// requirement. Every call appends one immutable round to the audit log.
type Selector struct {
	policy Policy
	fit    *scoring.FitScorer
	audit  *AuditLog
}

// NewSelector creates a Selector. A nil fit scorer uses default field
// weights; a nil audit log gets a default-capacity one.
func NewSelector(policy Policy, fit *scoring.FitScorer, audit *AuditLog) *Selector {
	if fit == nil {
		fit = scoring.NewFitScorer(nil)
	}
	if audit == nil {
		audit = NewAuditLog(DefaultAuditCap)
	}
	if policy.TopN <= 0 {
		policy.TopN = DefaultPolicy().TopN
	}
	return &Selector{policy: policy, fit: fit, audit: audit}
}

// Audit returns the selector's audit log.
func (s *Selector) Audit() *AuditLog {
	return s.audit
}

// Select ranks candidates for the requirement and returns a decision for
// the page identified by batchIndex (page 0 holds the best TopN by S_base).
// An empty decision means no eligible candidate; a decision with rankings
// but no selected agent means the best fit fell below the threshold. Both
// signal that a new agent spec should be spawned.
func (s *Selector) Select(req *models.Requirement, candidates []*models.AgentProfile, batchIndex int, opts SelectOptions) (*Decision, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	decision := &Decision{
		RequirementID: opts.RequirementID,
		BatchIndex:    batchIndex,
		Source:        SourceSystem,
	}

	excluded := make(map[string]bool, len(opts.Exclude))
	for _, id := range opts.Exclude {
		excluded[id] = true
	}

	// Hard filter: failing any must-have excludes the candidate outright.
	type scored struct {
		profile *models.AgentProfile
		sBase   float64
	}
	var eligible []scored
	for _, c := range candidates {
		if excluded[c.AgentID] {
			continue
		}
		if !req.Hard.SatisfiedBy(c.Capabilities) {
			continue
		}
		sBase, err := scoring.ComputeBase(c, s.policy.Base, now)
		if err != nil {
			return nil, err
		}
		eligible = append(eligible, scored{profile: c, sBase: sBase})
	}

	if len(eligible) == 0 {
		s.record(decision, req, now)
		return decision, nil
	}

	// Rank by S_base and slice the requested page.
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].sBase > eligible[j].sBase
	})
	start := batchIndex * s.policy.TopN
	if batchIndex < 0 || start >= len(eligible) {
		s.record(decision, req, now)
		return decision, nil
	}
	end := start + s.policy.TopN
	if end > len(eligible) {
		end = len(eligible)
	}
	page := eligible[start:end]

	// Score the page.
	quota := s.policy.ColdStartQuota
	rankings := make([]CandidateRanking, 0, len(page))
	for _, cand := range page {
		fit, err := s.fit.Fit(req, cand.profile.Capabilities)
		if err != nil {
			return nil, err
		}

		r := CandidateRanking{
			AgentID:      cand.profile.AgentID,
			SBase:        cand.sBase,
			Fit:          fit,
			Combined:     cand.sBase + s.policy.RequirementWeight*fit.Score,
			ActiveFaults: cand.profile.ActiveFaults(now),
			profile:      cand.profile,
		}

		if cand.profile.ColdStart {
			if quota > 0 {
				quota--
				r.Combined += s.policy.ColdStartBonus
				r.ColdStartReserved = true
			} else {
				r.Combined -= s.policy.ColdStartPenalty
			}
		}

		for _, miss := range fit.Missing() {
			r.RiskNotes = append(r.RiskNotes, "missing "+miss)
		}
		if r.ActiveFaults > 0 {
			r.RiskNotes = append(r.RiskNotes, fmt.Sprintf("%d active faults", r.ActiveFaults))
		}

		rankings = append(rankings, r)
	}

	sortRankings(rankings)
	decision.Ranked = rankings

	// System pick, gated by the minimum fit threshold.
	top := rankings[0]
	if top.Fit.Score >= s.policy.MinFitThreshold {
		decision.SelectedAgentID = top.AgentID
	}

	// User override must be present in the ranked page.
	if opts.Override != "" {
		found := false
		for _, r := range rankings {
			if r.AgentID == opts.Override {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("agent %q: %w", opts.Override, ErrInvalidOverride)
		}
		decision.SelectedAgentID = opts.Override
		decision.Source = SourceUser
	}

	s.record(decision, req, now)
	return decision, nil
}

// sortRankings orders candidates by the deterministic tie-break chain:
// combined desc, fit desc, active faults asc, performance desc, brand
// desc, recognition desc, most recent success desc. The sort is stable so
// fully tied candidates keep their S_base order.
func sortRankings(rankings []CandidateRanking) {
	sort.SliceStable(rankings, func(i, j int) bool {
		a, b := rankings[i], rankings[j]
		if a.Combined != b.Combined {
			return a.Combined > b.Combined
		}
		if a.Fit.Score != b.Fit.Score {
			return a.Fit.Score > b.Fit.Score
		}
		if a.ActiveFaults != b.ActiveFaults {
			return a.ActiveFaults < b.ActiveFaults
		}
		if a.profile.Static.Performance != b.profile.Static.Performance {
			return a.profile.Static.Performance > b.profile.Static.Performance
		}
		if a.profile.Static.Brand != b.profile.Static.Brand {
			return a.profile.Static.Brand > b.profile.Static.Brand
		}
		if a.profile.Static.Recognition != b.profile.Static.Recognition {
			return a.profile.Static.Recognition > b.profile.Static.Recognition
		}
		return laterSuccess(a.profile.LastSuccessAt, b.profile.LastSuccessAt)
	})
}

// laterSuccess prefers the more recent success time; a known time beats nil.
func laterSuccess(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.After(*b)
	}
}

func (s *Selector) record(d *Decision, req *models.Requirement, now time.Time) {
	s.audit.Append(SelectionRound{
		RequirementID:   d.RequirementID,
		BatchIndex:      d.BatchIndex,
		Requirement:     *req,
		Ranked:          d.Ranked,
		SelectedAgentID: d.SelectedAgentID,
		Source:          d.Source,
		Timestamp:       now,
	})
}
