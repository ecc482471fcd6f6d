package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/decompose"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/round"
)

const executePromptFmt = `You are executing one requirement of a software project.

Requirement %s: %s

%s

Acceptance criteria:
%s
%s
Work through the requirement in three steps: plan a short blueprint, describe
the implementation, then judge each acceptance criterion honestly.

Respond with ONLY a JSON object in this exact format:
{
  "blueprint": "short implementation plan",
  "implementation": "what was built and how",
  "qa": {"passed": <number of criteria met>, "total": <number of criteria evaluated>, "details": "per-criterion notes"},
  "modified_files": ["relative/path.go"]
}`

// executionReply mirrors the JSON contract of the execute prompt.
type executionReply struct {
	Blueprint      string `json:"blueprint"`
	Implementation string `json:"implementation"`
	QA             struct {
		Passed  int    `json:"passed"`
		Total   int    `json:"total"`
		Details string `json:"details"`
	} `json:"qa"`
	ModifiedFiles []string `json:"modified_files"`
}

// RequirementExecutor runs requirement attempts against the Anthropic API:
// one blueprint, implementation and self-QA conversation per attempt.
type RequirementExecutor struct {
	client *Client
}

// NewRequirementExecutor creates an executor around an Anthropic client.
func NewRequirementExecutor(client *Client) *RequirementExecutor {
	return &RequirementExecutor{client: client}
}

var _ round.Executor = (*RequirementExecutor)(nil)

// Execute runs one requirement attempt. Rate-limit and overload failures
// are marked transient so the orchestrator retries them in place.
func (x *RequirementExecutor) Execute(ctx context.Context, req *decompose.SpecRequirement, pctx *round.ProjectContext) (*round.ExecutionOutcome, error) {
	criteria := "- (none declared)"
	if len(req.Acceptance) > 0 {
		criteria = "- " + strings.Join(req.Acceptance, "\n- ")
	}
	prior := ""
	if pctx != nil && pctx.PriorError != "" {
		prior = fmt.Sprintf("\nThe previous attempt failed: %s\nAddress that failure this time.\n", pctx.PriorError)
	}
	prompt := fmt.Sprintf(executePromptFmt, req.ID, req.Title, req.Content, criteria, prior)

	resp, err := x.client.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     x.client.model,
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		if isTransientAPIError(err) {
			return nil, fmt.Errorf("anthropic call: %v: %w", err, round.ErrTransient)
		}
		return nil, fmt.Errorf("anthropic call: %w", err)
	}
	x.client.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var reply executionReply
	if err := json.Unmarshal([]byte(extractJSON(extractText(resp))), &reply); err != nil {
		return nil, fmt.Errorf("malformed execution reply: %w", err)
	}

	return &round.ExecutionOutcome{
		Blueprint:  reply.Blueprint,
		CodeResult: reply.Implementation,
		QA: round.QAResult{
			Passed:  reply.QA.Passed,
			Total:   reply.QA.Total,
			Details: reply.QA.Details,
		},
		ModifiedFiles: reply.ModifiedFiles,
		Tokens:        resp.Usage.InputTokens + resp.Usage.OutputTokens,
		Cost:          x.client.tracker.cost(resp.Usage.InputTokens, resp.Usage.OutputTokens),
		LLMCalls:      1,
	}, nil
}

// isTransientAPIError reports whether the API failure is worth an in-place
// retry (rate limits and upstream overload).
func isTransientAPIError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "529")
}
