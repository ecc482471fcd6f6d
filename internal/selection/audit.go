package selection

import (
	"sync"
	"time"

	"github.com/Hiveagents-ones/HiveCore-sub002/pkg/models"
)

// DecisionSource records who made a selection decision.
type DecisionSource string

const (
	// SourceSystem marks a decision made by the ranking algorithm.
	SourceSystem DecisionSource = "system"
	// SourceUser marks a decision where a user override replaced the
	// system pick.
	SourceUser DecisionSource = "user"
)

// SelectionRound is the immutable record of one selection decision.
type SelectionRound struct {
	// RequirementID identifies the requirement being selected for.
	RequirementID string `json:"requirement_id,omitempty"`
	// BatchIndex is the candidate page this round ranked.
	BatchIndex int `json:"batch_index"`
	// Requirement is a snapshot of the requirement at decision time.
	Requirement models.Requirement `json:"requirement"`
	// Ranked holds the ordered candidate rankings.
	Ranked []CandidateRanking `json:"ranked"`
	// SelectedAgentID is the chosen agent, empty when none qualified.
	SelectedAgentID string `json:"selected_agent_id,omitempty"`
	// Source is whether the system or a user made the pick.
	Source DecisionSource `json:"source"`
	// Timestamp is when the decision was made.
	Timestamp time.Time `json:"timestamp"`
}

// AuditLog is a bounded ring buffer of selection rounds. Selection history
// is observability, not a correctness dependency: once the cap is reached
// the oldest round is dropped. Safe for concurrent append. Construct one
// per selector; there is no package-level instance.
type AuditLog struct {
	mu     sync.RWMutex
	rounds []SelectionRound
	start  int
	count  int
}

// DefaultAuditCap is the default bound on retained selection rounds.
const DefaultAuditCap = 256

// NewAuditLog creates an audit log retaining at most capacity rounds.
// A non-positive capacity falls back to DefaultAuditCap.
func NewAuditLog(capacity int) *AuditLog {
	if capacity <= 0 {
		capacity = DefaultAuditCap
	}
	return &AuditLog{rounds: make([]SelectionRound, capacity)}
}

// Append records one selection round, evicting the oldest past the cap.
func (l *AuditLog) Append(round SelectionRound) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := (l.start + l.count) % len(l.rounds)
	l.rounds[idx] = round
	if l.count < len(l.rounds) {
		l.count++
	} else {
		l.start = (l.start + 1) % len(l.rounds)
	}
}

// Len returns the number of retained rounds.
func (l *AuditLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// Cap returns the retention bound.
func (l *AuditLog) Cap() int {
	return len(l.rounds)
}

// Recent returns up to n rounds, newest first.
func (l *AuditLog) Recent(n int) []SelectionRound {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n > l.count {
		n = l.count
	}
	out := make([]SelectionRound, 0, n)
	for i := 0; i < n; i++ {
		idx := (l.start + l.count - 1 - i) % len(l.rounds)
		out = append(out, l.rounds[idx])
	}
	return out
}

// ByRequirement returns retained rounds for one requirement, newest first.
func (l *AuditLog) ByRequirement(requirementID string) []SelectionRound {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []SelectionRound
	for i := l.count - 1; i >= 0; i-- {
		idx := (l.start + i) % len(l.rounds)
		if l.rounds[idx].RequirementID == requirementID {
			out = append(out, l.rounds[idx])
		}
	}
	return out
}
