package tools

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sentrykit/guardrail-mcp-server/internal/claims"
)

// EvaluateRunTool evaluates an arbitrary agent run against the guardrail
// policy and returns the verdict with a report URL.
type EvaluateRunTool struct {
	*BaseTool
}

func NewEvaluateRunTool(deps *Deps) *EvaluateRunTool {
	return &EvaluateRunTool{BaseTool: NewBaseTool(deps)}
}

func (t *EvaluateRunTool) Name() string {
	return "evaluate_run"
}

func (t *EvaluateRunTool) Description() string {
	return "Evaluate an agent run (goal, messages, contexts, tool calls, output) against the guardrail policy and return the verdict with findings and a report URL"
}

func (t *EvaluateRunTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"run": map[string]interface{}{
				"type":        "object",
				"description": "Structured record of the agent run",
				"properties": map[string]interface{}{
					"goal":        map[string]interface{}{"type": "string"},
					"constraints": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
					"messages": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"role":    map[string]interface{}{"type": "string"},
								"content": map[string]interface{}{"type": "string"},
							},
						},
					},
					"contexts": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"source": map[string]interface{}{"type": "string"},
								"text":   map[string]interface{}{"type": "string"},
							},
						},
					},
					"tool_calls": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"name": map[string]interface{}{"type": "string"},
								"args": map[string]interface{}{"type": "object"},
							},
						},
					},
					"output": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"text":   map[string]interface{}{"type": "string"},
							"claims": map[string]interface{}{"type": "array"},
						},
					},
				},
			},
			"policy_overrides": map[string]interface{}{
				"type":        "object",
				"description": "Policy fields to override for this evaluation (allowed_tool_names, block_on, min_pay_threshold, ...)",
			},
			"auto_claims": map[string]interface{}{
				"type":        "boolean",
				"description": "Generate naive claims from the output text when the run carries none",
			},
			"evidence_url": map[string]interface{}{
				"type":        "string",
				"description": "Evidence URL attached to auto-generated claims",
			},
		},
		"required": []string{"run"},
	}
}

func (t *EvaluateRunTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	runPayload := mapParam(arguments, "run")
	if runPayload == nil {
		return NewToolResultErrorWithSuggestion(
			"Required parameter 'run' is missing",
			"Provide the structured agent run to evaluate",
		), nil
	}

	run := ParseRunInput(runPayload)
	if boolParam(arguments, "auto_claims") && run.Output != nil && len(run.Output.Claims) == 0 {
		run.Output.Claims = claims.Generate(run.Output, stringParam(arguments, "evidence_url"))
	}

	eng := t.Engine(mapParam(arguments, "policy_overrides"))
	payload, err := t.Evaluate(ctx, t.Name(), eng, run)
	if err != nil {
		return NewToolResultFromError(err), nil
	}
	return t.FormatResponse(payload)
}

func (t *EvaluateRunTool) Annotations() *mcp.ToolAnnotations {
	return EvaluateAnnotations("Evaluate Agent Run")
}

func (t *EvaluateRunTool) DefaultTimeout() time.Duration {
	// Claim verification may fetch several evidence URLs with retries.
	return 60 * time.Second
}
