package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/selection"
)

// Analyzer asks a Claude model whether a requirement needs a team and which
// roles that team should have. It implements selection.Strategy; callers
// treat any error here as advisory and fall back to single-agent selection.
type Analyzer struct {
	client *Client
}

// compile-time check
var _ selection.Strategy = (*Analyzer)(nil)

// NewAnalyzer creates a team composition analyzer on the given client.
func NewAnalyzer(client *Client) *Analyzer {
	return &Analyzer{client: client}
}

const analyzePromptFmt = `You are planning how to staff a software requirement with AI agents.

## Requirement %s
%s

## Available skills on the requirement
%s

## Known roles
architect, backend, frontend, data, devops, qa, security

Decide whether one agent can handle this alone or a small team with defined
roles is needed. Respond with ONLY a JSON object, no prose:

{
  "complexity": "low|medium|high",
  "needs_collaboration": true|false,
  "required_roles": ["..."],
  "optional_roles": ["..."],
  "collaboration_mode": "single|sequential|parallel|iterative",
  "reasoning": "one or two sentences"
}

Prefer a single agent unless the requirement clearly spans multiple roles.
Use only the known role names.`

// Analyze asks the model for a team composition recommendation.
func (a *Analyzer) Analyze(ctx context.Context, requirementID, requirementText string, skills []string) (*selection.TeamAnalysis, error) {
	skillList := "none specified"
	if len(skills) > 0 {
		skillList = strings.Join(skills, ", ")
	}
	prompt := fmt.Sprintf(analyzePromptFmt, requirementID, requirementText, skillList)

	resp, err := a.client.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.client.model,
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("team analysis failed: %w", err)
	}

	a.client.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var analysis selection.TeamAnalysis
	if err := json.Unmarshal([]byte(extractJSON(extractText(resp))), &analysis); err != nil {
		return nil, fmt.Errorf("malformed team analysis: %w", err)
	}
	if err := analysis.Validate(); err != nil {
		return nil, fmt.Errorf("invalid team analysis: %w", err)
	}
	return &analysis, nil
}

// extractText concatenates the text blocks of a response.
func extractText(resp *anthropic.Message) string {
	var result string
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			result += variant.Text
		}
	}
	return strings.TrimSpace(result)
}

// extractJSON strips markdown code fences and any prose around the first
// top-level JSON object. Models sometimes wrap JSON despite instructions.
func extractJSON(s string) string {
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}
