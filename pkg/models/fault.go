package models

import "time"

// FaultSeverity classifies how serious a recorded fault was.
type FaultSeverity string

const (
	// FaultCritical indicates a failure with material external impact.
	FaultCritical FaultSeverity = "critical"
	// FaultMajor indicates a failure that required intervention.
	FaultMajor FaultSeverity = "major"
	// FaultMinor indicates a recoverable failure.
	FaultMinor FaultSeverity = "minor"
	// FaultNotice indicates an observation that did not affect delivery.
	FaultNotice FaultSeverity = "notice"
)

// Valid returns true if the severity is a known value.
func (s FaultSeverity) Valid() bool {
	switch s {
	case FaultCritical, FaultMajor, FaultMinor, FaultNotice:
		return true
	default:
		return false
	}
}

// SeverityWeights maps fault severities to score penalties.
type SeverityWeights map[FaultSeverity]float64

// DefaultSeverityWeights returns the standard penalty per severity.
func DefaultSeverityWeights() SeverityWeights {
	return SeverityWeights{
		FaultCritical: 0.40,
		FaultMajor:    0.20,
		FaultMinor:    0.08,
		FaultNotice:   0.02,
	}
}

// FaultRecord is one entry in an agent's fault ledger.
type FaultRecord struct {
	// Severity is how serious the fault was.
	Severity FaultSeverity `json:"severity" yaml:"severity"`
	// OccurredAt is when the fault happened.
	OccurredAt time.Time `json:"occurred_at" yaml:"occurred_at"`
	// CoolingDays is how many days the fault stays relevant.
	CoolingDays int `json:"cooling_days" yaml:"cooling_days"`
	// Reason is an optional human-readable description.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// ActiveAt returns true while the record is inside its cooling window.
func (r FaultRecord) ActiveAt(now time.Time) bool {
	expiry := r.OccurredAt.Add(time.Duration(r.CoolingDays) * 24 * time.Hour)
	return now.Before(expiry)
}

// FaultLedger is the append-only history of an agent's faults.
// Records are never removed; they age out of relevance instead.
type FaultLedger []FaultRecord

// Append returns a new ledger with the record added.
func (l FaultLedger) Append(r FaultRecord) FaultLedger {
	return append(l, r)
}

// ActiveCount returns the number of records active at the given time.
func (l FaultLedger) ActiveCount(now time.Time) int {
	count := 0
	for _, r := range l {
		if r.ActiveAt(now) {
			count++
		}
	}
	return count
}

// ActivePenalty sums the severity weights of all records active at the
// given time. Unknown severities contribute nothing.
func (l FaultLedger) ActivePenalty(now time.Time, weights SeverityWeights) float64 {
	var penalty float64
	for _, r := range l {
		if r.ActiveAt(now) {
			penalty += weights[r.Severity]
		}
	}
	return penalty
}
