package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sentrykit/guardrail-mcp-server/internal/engine"
	"github.com/sentrykit/guardrail-mcp-server/internal/scenarios"
)

// ListScenariosTool lists the predefined demo scenarios and their variants.
type ListScenariosTool struct {
	*BaseTool
}

func NewListScenariosTool(deps *Deps) *ListScenariosTool {
	return &ListScenariosTool{BaseTool: NewBaseTool(deps)}
}

func (t *ListScenariosTool) Name() string {
	return "list_scenarios"
}

func (t *ListScenariosTool) Description() string {
	return "List the predefined demo scenarios with their variants and expected outcomes"
}

func (t *ListScenariosTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (t *ListScenariosTool) Execute(_ context.Context, _ map[string]interface{}) (*mcp.CallToolResult, error) {
	return t.FormatResponse(map[string]interface{}{
		"scenarios": scenarios.Index(),
	})
}

func (t *ListScenariosTool) Annotations() *mcp.ToolAnnotations {
	return ReadOnlyAnnotations("List Demo Scenarios")
}

// RunScenarioTool evaluates one predefined scenario variant.
type RunScenarioTool struct {
	*BaseTool
}

func NewRunScenarioTool(deps *Deps) *RunScenarioTool {
	return &RunScenarioTool{BaseTool: NewBaseTool(deps)}
}

func (t *RunScenarioTool) Name() string {
	return "run_scenario"
}

func (t *RunScenarioTool) Description() string {
	return "Evaluate a predefined demo scenario variant and return the verdict with a report URL"
}

func (t *RunScenarioTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"scenario_id": map[string]interface{}{
				"type":        "string",
				"description": "Scenario identifier (see list_scenarios)",
			},
			"variant_key": map[string]interface{}{
				"type":        "string",
				"description": "Variant key within the scenario",
			},
		},
		"required": []string{"scenario_id", "variant_key"},
	}
}

func (t *RunScenarioTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	scenario, err := scenarios.Get(stringParam(arguments, "scenario_id"))
	if err != nil {
		return NewToolResultFromError(err), nil
	}
	variant, err := scenario.Variant(stringParam(arguments, "variant_key"))
	if err != nil {
		return NewToolResultFromError(err), nil
	}

	// Scenario variants carry their own policy; the server base policy does
	// not apply here.
	eng := engine.New(scenario.Policy(variant), engine.Options{
		Fetcher:        t.deps.Fetcher,
		ReportTemplate: t.deps.ReportTemplate,
		Logger:         t.deps.Logger,
	})

	run := variant.Run
	payload, err := t.Evaluate(ctx, t.Name(), eng, &run)
	if err != nil {
		return NewToolResultFromError(err), nil
	}

	payload["scenario"] = map[string]interface{}{
		"id":      scenario.ID,
		"title":   scenario.Title,
		"variant": variant.Label,
	}
	if variant.ExpectedBlocked != nil {
		payload["expected_blocked"] = *variant.ExpectedBlocked
	}
	return t.FormatResponse(payload)
}

func (t *RunScenarioTool) Annotations() *mcp.ToolAnnotations {
	return EvaluateAnnotations("Run Demo Scenario")
}
