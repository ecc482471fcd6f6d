package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Hiveagents-ones/HiveCore-sub002/pkg/models"
)

// Round CRUD operations

// CreateRound inserts a new execution round.
func (db *DB) CreateRound(r *models.ExecutionRound) error {
	_, err := db.Exec(`
		INSERT INTO execution_rounds (
			id, project_id, round_number, status, max_inner_rounds, parallel,
			requirement_text, current_inner_round, total_inner_rounds,
			passed_requirements, failed_requirements, tokens_used, cost,
			llm_calls, summary, error, started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.ProjectID, r.RoundNumber, string(r.Status),
		r.Options.MaxInnerRounds, boolToInt(r.Options.Parallel),
		r.RequirementText, r.CurrentInnerRound, r.TotalInnerRounds,
		r.PassedRequirements, r.FailedRequirements, r.TokensUsed, r.Cost,
		r.LLMCalls, r.Summary, r.Error, formatTime(r.StartedAt),
		formatNullableTime(r.CompletedAt))
	if err != nil {
		return fmt.Errorf("create round: %w", err)
	}
	return nil
}

// GetRound retrieves a round by ID. Returns nil when not found.
func (db *DB) GetRound(id string) (*models.ExecutionRound, error) {
	row := db.QueryRow(`
		SELECT id, project_id, round_number, status, max_inner_rounds, parallel,
			requirement_text, current_inner_round, total_inner_rounds,
			passed_requirements, failed_requirements, tokens_used, cost,
			llm_calls, summary, error, started_at, completed_at
		FROM execution_rounds WHERE id = ?
	`, id)

	r, err := scanRound(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get round: %w", err)
	}
	return r, nil
}

// UpdateRound updates a round's mutable fields.
func (db *DB) UpdateRound(r *models.ExecutionRound) error {
	_, err := db.Exec(`
		UPDATE execution_rounds SET
			status = ?, current_inner_round = ?, total_inner_rounds = ?,
			passed_requirements = ?, failed_requirements = ?, tokens_used = ?,
			cost = ?, llm_calls = ?, summary = ?, error = ?, completed_at = ?
		WHERE id = ?
	`, string(r.Status), r.CurrentInnerRound, r.TotalInnerRounds,
		r.PassedRequirements, r.FailedRequirements, r.TokensUsed,
		r.Cost, r.LLMCalls, r.Summary, r.Error,
		formatNullableTime(r.CompletedAt), r.ID)
	if err != nil {
		return fmt.Errorf("update round: %w", err)
	}
	return nil
}

// ListRounds lists rounds for a project, newest first.
func (db *DB) ListRounds(projectID string) ([]models.ExecutionRound, error) {
	rows, err := db.Query(`
		SELECT id, project_id, round_number, status, max_inner_rounds, parallel,
			requirement_text, current_inner_round, total_inner_rounds,
			passed_requirements, failed_requirements, tokens_used, cost,
			llm_calls, summary, error, started_at, completed_at
		FROM execution_rounds WHERE project_id = ?
		ORDER BY round_number DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()

	var result []models.ExecutionRound
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

// ActiveRound returns the project's non-terminal round, if any.
func (db *DB) ActiveRound(projectID string) (*models.ExecutionRound, error) {
	row := db.QueryRow(`
		SELECT id, project_id, round_number, status, max_inner_rounds, parallel,
			requirement_text, current_inner_round, total_inner_rounds,
			passed_requirements, failed_requirements, tokens_used, cost,
			llm_calls, summary, error, started_at, completed_at
		FROM execution_rounds
		WHERE project_id = ? AND status IN ('pending', 'running')
		ORDER BY round_number DESC LIMIT 1
	`, projectID)

	r, err := scanRound(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active round: %w", err)
	}
	return r, nil
}

// NextRoundNumber returns the next round ordinal for a project.
func (db *DB) NextRoundNumber(projectID string) (int, error) {
	var max int
	row := db.QueryRow(`
		SELECT COALESCE(MAX(round_number), 0) FROM execution_rounds WHERE project_id = ?
	`, projectID)
	if err := row.Scan(&max); err != nil {
		return 0, fmt.Errorf("next round number: %w", err)
	}
	return max + 1, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRound(s scanner) (*models.ExecutionRound, error) {
	var r models.ExecutionRound
	var status string
	var parallel int
	var requirementText, summary, errMsg sql.NullString
	var startedAt string
	var completedAt sql.NullString

	err := s.Scan(&r.ID, &r.ProjectID, &r.RoundNumber, &status,
		&r.Options.MaxInnerRounds, &parallel, &requirementText,
		&r.CurrentInnerRound, &r.TotalInnerRounds,
		&r.PassedRequirements, &r.FailedRequirements, &r.TokensUsed,
		&r.Cost, &r.LLMCalls, &summary, &errMsg, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	r.Status = models.RoundStatus(status)
	r.Options.Parallel = parallel != 0
	r.RequirementText = requirementText.String
	r.Summary = summary.String
	r.Error = errMsg.String
	r.StartedAt, _ = parseTime(startedAt)
	r.CompletedAt = parseNullableTime(completedAt)
	return &r, nil
}

// Execution CRUD operations

// CreateExecution inserts a requirement execution row.
func (db *DB) CreateExecution(e *models.RequirementExecution) error {
	deps, err := json.Marshal(e.DependsOn)
	if err != nil {
		return fmt.Errorf("encode depends_on: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO requirement_executions (
			id, round_id, requirement_id, inner_round, attempt, depends_on,
			status, is_passed, pass_rate, agent_id, worker_id, tokens_used,
			cost, llm_calls, blueprint, code_result, qa_result, error,
			started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.RoundID, e.RequirementID, e.InnerRound, e.Attempt, string(deps),
		string(e.Status), boolToInt(e.Passed), e.PassRate, e.AgentID, e.WorkerID,
		e.TokensUsed, e.Cost, e.LLMCalls, e.Blueprint, e.CodeResult, e.QAResult,
		e.Error, formatNullableTime(e.StartedAt), formatNullableTime(e.CompletedAt))
	if err != nil {
		return fmt.Errorf("create execution: %w", err)
	}
	return nil
}

// UpdateExecution updates an execution row's mutable fields.
func (db *DB) UpdateExecution(e *models.RequirementExecution) error {
	_, err := db.Exec(`
		UPDATE requirement_executions SET
			status = ?, is_passed = ?, pass_rate = ?, agent_id = ?, worker_id = ?,
			tokens_used = ?, cost = ?, llm_calls = ?, blueprint = ?,
			code_result = ?, qa_result = ?, error = ?, started_at = ?, completed_at = ?
		WHERE id = ?
	`, string(e.Status), boolToInt(e.Passed), e.PassRate, e.AgentID, e.WorkerID,
		e.TokensUsed, e.Cost, e.LLMCalls, e.Blueprint, e.CodeResult, e.QAResult,
		e.Error, formatNullableTime(e.StartedAt), formatNullableTime(e.CompletedAt),
		e.ID)
	if err != nil {
		return fmt.Errorf("update execution: %w", err)
	}
	return nil
}

// GetExecution retrieves an execution row by ID. Returns nil when not found.
func (db *DB) GetExecution(id string) (*models.RequirementExecution, error) {
	row := db.QueryRow(executionSelect+" WHERE id = ?", id)
	e, err := scanExecution(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get execution: %w", err)
	}
	return e, nil
}

// ListExecutions lists all execution rows for a round, ordered by inner
// round, attempt, then requirement ID.
func (db *DB) ListExecutions(roundID string) ([]models.RequirementExecution, error) {
	rows, err := db.Query(executionSelect+`
		WHERE round_id = ?
		ORDER BY inner_round, attempt, requirement_id
	`, roundID)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var result []models.RequirementExecution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

// LatestExecutions returns, per requirement, the row with the highest
// (inner_round, attempt). That row decides the requirement's final state.
func (db *DB) LatestExecutions(roundID string) (map[string]*models.RequirementExecution, error) {
	all, err := db.ListExecutions(roundID)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]*models.RequirementExecution)
	for i := range all {
		e := &all[i]
		if e.Newer(latest[e.RequirementID]) {
			latest[e.RequirementID] = e
		}
	}
	return latest, nil
}

const executionSelect = `
	SELECT id, round_id, requirement_id, inner_round, attempt, depends_on,
		status, is_passed, pass_rate, agent_id, worker_id, tokens_used,
		cost, llm_calls, blueprint, code_result, qa_result, error,
		started_at, completed_at
	FROM requirement_executions
`

func scanExecution(s scanner) (*models.RequirementExecution, error) {
	var e models.RequirementExecution
	var deps, agentID, workerID, blueprint, codeResult, qaResult, errMsg sql.NullString
	var status string
	var passed int
	var startedAt, completedAt sql.NullString

	err := s.Scan(&e.ID, &e.RoundID, &e.RequirementID, &e.InnerRound,
		&e.Attempt, &deps, &status, &passed, &e.PassRate, &agentID, &workerID,
		&e.TokensUsed, &e.Cost, &e.LLMCalls, &blueprint, &codeResult,
		&qaResult, &errMsg, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	if deps.Valid && deps.String != "" {
		if err := json.Unmarshal([]byte(deps.String), &e.DependsOn); err != nil {
			return nil, fmt.Errorf("decode depends_on: %w", err)
		}
	}
	e.Status = models.ExecutionStatus(status)
	e.Passed = passed != 0
	e.AgentID = agentID.String
	e.WorkerID = workerID.String
	e.Blueprint = blueprint.String
	e.CodeResult = codeResult.String
	e.QAResult = qaResult.String
	e.Error = errMsg.String
	e.StartedAt = parseNullableTime(startedAt)
	e.CompletedAt = parseNullableTime(completedAt)
	return &e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
