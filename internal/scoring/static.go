// Package scoring computes agent trust scores and requirement fit.
package scoring

import (
	"errors"
	"fmt"
	"time"

	"github.com/Hiveagents-ones/HiveCore-sub002/pkg/models"
)

// ErrBadWeights indicates a weight configuration whose total is not positive.
var ErrBadWeights = errors.New("weight components must sum to a positive value")

// BaseWeights are the components of the static trust score.
type BaseWeights struct {
	// Performance weights the historical delivery component.
	Performance float64
	// Brand weights the organizational reputation component.
	Brand float64
	// Recognition weights the external recognition component.
	Recognition float64
	// Fault weights the decaying fault-history component.
	Fault float64
	// Severity maps fault severities to penalties. Nil uses the defaults.
	Severity models.SeverityWeights
}

// DefaultBaseWeights returns the standard static score weighting.
func DefaultBaseWeights() BaseWeights {
	return BaseWeights{
		Performance: 0.4,
		Brand:       0.2,
		Recognition: 0.15,
		Fault:       0.25,
	}
}

// ComputeBase computes an agent's context-independent trust score in [0,1]
// at the given time. The four weight components are normalized to sum to 1;
// a non-positive total is a configuration error. The fault component decays
// as ledger records age past their cooling windows, so the result is only
// valid for the time it was computed.
func ComputeBase(profile *models.AgentProfile, w BaseWeights, now time.Time) (float64, error) {
	total := w.Performance + w.Brand + w.Recognition + w.Fault
	if total <= 0 {
		return 0, fmt.Errorf("static score: %w", ErrBadWeights)
	}

	severity := w.Severity
	if severity == nil {
		severity = models.DefaultSeverityWeights()
	}

	faultComponent := 1 - profile.Faults.ActivePenalty(now, severity)
	if faultComponent < 0 {
		faultComponent = 0
	}

	score := (w.Performance*clamp01(profile.Static.Performance) +
		w.Brand*clamp01(profile.Static.Brand) +
		w.Recognition*clamp01(profile.Static.Recognition) +
		w.Fault*faultComponent) / total

	return clamp01(score), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
