// Package registry maintains the roster of registered agent profiles.
package registry

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Hiveagents-ones/HiveCore-sub002/pkg/models"
)

// registryFile is the on-disk YAML shape of the agent roster.
type registryFile struct {
	Agents []*models.AgentProfile `yaml:"agents"`
}

// Registry holds agent profiles loaded from a YAML roster file. Profiles
// are never deleted; deactivation keeps the history referenced by past
// decisions intact. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	path   string
	agents map[string]*models.AgentProfile

	watcher *watcher
}

// Open loads the roster file at path. A missing file yields an empty
// registry so a fresh project can register agents before first save.
func Open(path string) (*Registry, error) {
	r := &Registry{
		path:   path,
		agents: make(map[string]*models.AgentProfile),
	}
	if err := r.Reload(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return r, nil
}

// Path returns the roster file path.
func (r *Registry) Path() string {
	return r.path
}

// Reload re-reads the roster file, replacing the in-memory set. Called on
// open and by the file watcher.
func (r *Registry) Reload() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return err
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse agent roster: %w", err)
	}

	agents := make(map[string]*models.AgentProfile, len(file.Agents))
	for _, p := range file.Agents {
		if p.AgentID == "" {
			return fmt.Errorf("agent roster entry %q has no agent_id", p.Name)
		}
		if _, dup := agents[p.AgentID]; dup {
			return fmt.Errorf("duplicate agent_id %q in roster", p.AgentID)
		}
		agents[p.AgentID] = p
	}

	r.mu.Lock()
	r.agents = agents
	r.mu.Unlock()
	return nil
}

// Save writes the current roster back to the file, sorted by agent ID.
func (r *Registry) Save() error {
	r.mu.RLock()
	file := registryFile{Agents: make([]*models.AgentProfile, 0, len(r.agents))}
	for _, p := range r.agents {
		file.Agents = append(file.Agents, cloneProfile(p))
	}
	r.mu.RUnlock()

	sort.Slice(file.Agents, func(i, j int) bool {
		return file.Agents[i].AgentID < file.Agents[j].AgentID
	})

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("encode agent roster: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write agent roster: %w", err)
	}
	return nil
}

// List returns profile copies sorted by agent ID. With activeOnly set,
// deactivated agents are skipped.
func (r *Registry) List(activeOnly bool) []*models.AgentProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.AgentProfile, 0, len(r.agents))
	for _, p := range r.agents {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, cloneProfile(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out
}

// Get returns a copy of the profile with the given ID.
func (r *Registry) Get(agentID string) (*models.AgentProfile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.agents[agentID]
	if !ok {
		return nil, false
	}
	return cloneProfile(p), true
}

// Register adds a new agent profile. New agents start active and in
// cold-start state until their first recorded success.
func (r *Registry) Register(p *models.AgentProfile) error {
	if p.AgentID == "" {
		return fmt.Errorf("agent profile has no agent_id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[p.AgentID]; exists {
		return fmt.Errorf("agent %q is already registered", p.AgentID)
	}

	reg := cloneProfile(p)
	reg.Active = true
	if reg.LastSuccessAt == nil {
		reg.ColdStart = true
	}
	if reg.RegisteredAt.IsZero() {
		reg.RegisteredAt = time.Now()
	}
	r.agents[reg.AgentID] = reg
	return nil
}

// Deactivate marks the agent inactive. The profile stays on the roster so
// historical decisions keep resolving.
func (r *Registry) Deactivate(agentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.agents[agentID]
	if !ok {
		return fmt.Errorf("agent %q is not registered", agentID)
	}
	p.Active = false
	return nil
}

// RecordFault appends a fault to the agent's ledger. The ledger is
// append-only; the penalty decays as the cooling window passes.
func (r *Registry) RecordFault(agentID string, rec models.FaultRecord) error {
	if !rec.Severity.Valid() {
		return fmt.Errorf("unknown fault severity %q", rec.Severity)
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.agents[agentID]
	if !ok {
		return fmt.Errorf("agent %q is not registered", agentID)
	}
	p.Faults = p.Faults.Append(rec)
	return nil
}

// RecordSuccess updates the agent's last success time and ends its
// cold-start period.
func (r *Registry) RecordSuccess(agentID string, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.agents[agentID]
	if !ok {
		return fmt.Errorf("agent %q is not registered", agentID)
	}
	if p.LastSuccessAt == nil || at.After(*p.LastSuccessAt) {
		t := at
		p.LastSuccessAt = &t
	}
	p.ColdStart = false
	return nil
}

// Len returns the number of registered profiles, active or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// cloneProfile deep-copies a profile so callers cannot mutate shared state.
func cloneProfile(p *models.AgentProfile) *models.AgentProfile {
	c := *p
	c.Capabilities.Skills = append([]string(nil), p.Capabilities.Skills...)
	c.Capabilities.Tools = append([]string(nil), p.Capabilities.Tools...)
	c.Capabilities.Domains = append([]string(nil), p.Capabilities.Domains...)
	c.Capabilities.Languages = append([]string(nil), p.Capabilities.Languages...)
	c.Capabilities.Regions = append([]string(nil), p.Capabilities.Regions...)
	c.Capabilities.ComplianceTags = append([]string(nil), p.Capabilities.ComplianceTags...)
	c.Capabilities.Certifications = append([]string(nil), p.Capabilities.Certifications...)
	c.Capabilities.SimilarCases = append([]string(nil), p.Capabilities.SimilarCases...)
	c.Faults = append(models.FaultLedger(nil), p.Faults...)
	if p.LastSuccessAt != nil {
		t := *p.LastSuccessAt
		c.LastSuccessAt = &t
	}
	return &c
}
