package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Hiveagents-ones/HiveCore-sub002/pkg/models"
)

// Agent profile persistence. The registry file is the editable source of
// truth; these snapshots keep profiles queryable next to the rounds that
// referenced them.

// SaveProfile inserts or replaces an agent profile snapshot.
func (db *DB) SaveProfile(p *models.AgentProfile) error {
	caps, err := json.Marshal(p.Capabilities)
	if err != nil {
		return fmt.Errorf("encode capabilities: %w", err)
	}
	faults, err := json.Marshal(p.Faults)
	if err != nil {
		return fmt.Errorf("encode faults: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO agent_profiles (
			agent_id, name, role, capabilities, performance, brand,
			recognition, faults, cold_start, active, last_success_at,
			registered_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(agent_id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			capabilities = excluded.capabilities,
			performance = excluded.performance,
			brand = excluded.brand,
			recognition = excluded.recognition,
			faults = excluded.faults,
			cold_start = excluded.cold_start,
			active = excluded.active,
			last_success_at = excluded.last_success_at
	`, p.AgentID, p.Name, p.Role, string(caps), p.Static.Performance,
		p.Static.Brand, p.Static.Recognition, string(faults),
		boolToInt(p.ColdStart), boolToInt(p.Active),
		formatNullableTime(p.LastSuccessAt), formatTime(p.RegisteredAt))
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// GetProfile retrieves a profile snapshot by agent ID. Returns nil when
// not found.
func (db *DB) GetProfile(agentID string) (*models.AgentProfile, error) {
	row := db.QueryRow(profileSelect+" WHERE agent_id = ?", agentID)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// ListProfiles lists profile snapshots ordered by agent ID. With
// activeOnly set, deactivated agents are skipped.
func (db *DB) ListProfiles(activeOnly bool) ([]models.AgentProfile, error) {
	query := profileSelect + " ORDER BY agent_id"
	if activeOnly {
		query = profileSelect + " WHERE active = 1 ORDER BY agent_id"
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var result []models.AgentProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

const profileSelect = `
	SELECT agent_id, name, role, capabilities, performance, brand,
		recognition, faults, cold_start, active, last_success_at,
		registered_at
	FROM agent_profiles
`

func scanProfile(s scanner) (*models.AgentProfile, error) {
	var p models.AgentProfile
	var role sql.NullString
	var caps, faults string
	var coldStart, active int
	var lastSuccess sql.NullString
	var registeredAt string

	err := s.Scan(&p.AgentID, &p.Name, &role, &caps, &p.Static.Performance,
		&p.Static.Brand, &p.Static.Recognition, &faults, &coldStart,
		&active, &lastSuccess, &registeredAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(caps), &p.Capabilities); err != nil {
		return nil, fmt.Errorf("decode capabilities: %w", err)
	}
	if err := json.Unmarshal([]byte(faults), &p.Faults); err != nil {
		return nil, fmt.Errorf("decode faults: %w", err)
	}
	p.Role = role.String
	p.ColdStart = coldStart != 0
	p.Active = active != 0
	p.LastSuccessAt = parseNullableTime(lastSuccess)
	p.RegisteredAt, _ = parseTime(registeredAt)
	return &p, nil
}
