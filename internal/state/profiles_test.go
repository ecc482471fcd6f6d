package state

import (
	"testing"
	"time"

	"github.com/Hiveagents-ones/HiveCore-sub002/pkg/models"
)

func TestProfileSaveAndGet(t *testing.T) {
	db := setupTestDB(t)

	success := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	p := &models.AgentProfile{
		AgentID: "agent-1",
		Name:    "Builder",
		Role:    "backend",
		Capabilities: models.AgentCapabilities{
			Skills:      []string{"go", "sql"},
			Tools:       []string{"docker"},
			Description: "backend services",
		},
		Static: models.StaticScore{Performance: 0.8, Brand: 0.6, Recognition: 0.5},
		Faults: models.FaultLedger{{
			Severity:    models.FaultMinor,
			OccurredAt:  time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			CoolingDays: 7,
		}},
		Active:        true,
		LastSuccessAt: &success,
		RegisteredAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := db.SaveProfile(p); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	got, err := db.GetProfile("agent-1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got == nil {
		t.Fatal("profile not found after save")
	}
	if len(got.Capabilities.Skills) != 2 || got.Capabilities.Skills[0] != "go" {
		t.Errorf("skills = %v", got.Capabilities.Skills)
	}
	if len(got.Faults) != 1 || got.Faults[0].Severity != models.FaultMinor {
		t.Errorf("faults = %+v", got.Faults)
	}
	if got.LastSuccessAt == nil || !got.LastSuccessAt.Equal(success) {
		t.Errorf("last_success_at = %v", got.LastSuccessAt)
	}

	missing, err := db.GetProfile("ghost")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Error("unknown agent should return nil, nil")
	}
}

func TestProfileUpsert(t *testing.T) {
	db := setupTestDB(t)

	p := &models.AgentProfile{
		AgentID:      "agent-1",
		Name:         "Builder",
		ColdStart:    true,
		Active:       true,
		RegisteredAt: time.Now(),
	}
	if err := db.SaveProfile(p); err != nil {
		t.Fatal(err)
	}

	p.ColdStart = false
	p.Static.Performance = 0.9
	if err := db.SaveProfile(p); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, _ := db.GetProfile("agent-1")
	if got.ColdStart {
		t.Error("cold_start not updated by upsert")
	}
	if got.Static.Performance != 0.9 {
		t.Errorf("performance = %f", got.Static.Performance)
	}

	profiles, err := db.ListProfiles(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 1 {
		t.Errorf("upsert created %d rows, want 1", len(profiles))
	}
}

func TestListProfilesActiveOnly(t *testing.T) {
	db := setupTestDB(t)

	now := time.Now()
	for _, p := range []*models.AgentProfile{
		{AgentID: "a1", Name: "one", Active: true, RegisteredAt: now},
		{AgentID: "a2", Name: "two", Active: false, RegisteredAt: now},
	} {
		if err := db.SaveProfile(p); err != nil {
			t.Fatal(err)
		}
	}

	active, err := db.ListProfiles(true)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].AgentID != "a1" {
		t.Errorf("active profiles = %+v", active)
	}

	all, err := db.ListProfiles(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("all profiles = %d, want 2", len(all))
	}
}
