package models

import "testing"

func TestRoundStatusValid(t *testing.T) {
	valid := []RoundStatus{RoundPending, RoundRunning, RoundCompleted, RoundFailed, RoundCancelled}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if RoundStatus("paused").Valid() {
		t.Error("expected unknown status to be invalid")
	}
}

func TestRoundStatusTerminal(t *testing.T) {
	tests := []struct {
		status   RoundStatus
		terminal bool
	}{
		{RoundPending, false},
		{RoundRunning, false},
		{RoundCompleted, true},
		{RoundFailed, true},
		{RoundCancelled, true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestExecutionStatusTerminal(t *testing.T) {
	if ExecPending.Terminal() || ExecScheduled.Terminal() || ExecRunning.Terminal() {
		t.Error("pending/scheduled/running must not be terminal")
	}
	if !ExecCompleted.Terminal() || !ExecFailed.Terminal() {
		t.Error("completed/failed must be terminal")
	}
}

func TestRequirementExecutionNewer(t *testing.T) {
	tests := []struct {
		name string
		a, b *RequirementExecution
		want bool
	}{
		{
			name: "nil other",
			a:    &RequirementExecution{InnerRound: 1, Attempt: 1},
			b:    nil,
			want: true,
		},
		{
			name: "higher inner round wins",
			a:    &RequirementExecution{InnerRound: 2, Attempt: 1},
			b:    &RequirementExecution{InnerRound: 1, Attempt: 5},
			want: true,
		},
		{
			name: "same inner round higher attempt wins",
			a:    &RequirementExecution{InnerRound: 2, Attempt: 3},
			b:    &RequirementExecution{InnerRound: 2, Attempt: 2},
			want: true,
		},
		{
			name: "older row",
			a:    &RequirementExecution{InnerRound: 1, Attempt: 1},
			b:    &RequirementExecution{InnerRound: 2, Attempt: 1},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Newer(tt.b); got != tt.want {
				t.Errorf("Newer = %v, want %v", got, tt.want)
			}
		})
	}
}
