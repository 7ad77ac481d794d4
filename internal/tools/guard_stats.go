package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GuardStatsTool reports operational statistics: evaluation counters,
// finding distribution and recent audit activity.
type GuardStatsTool struct {
	*BaseTool
}

func NewGuardStatsTool(deps *Deps) *GuardStatsTool {
	return &GuardStatsTool{BaseTool: NewBaseTool(deps)}
}

func (t *GuardStatsTool) Name() string {
	return "guard_stats"
}

func (t *GuardStatsTool) Description() string {
	return "Report operational statistics: evaluations performed, block rate, findings by kind, tool usage and recent audit entries"
}

func (t *GuardStatsTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"recent_limit": map[string]interface{}{
				"type":        "number",
				"description": "Number of recent audit entries to include (default 10)",
			},
		},
	}
}

func (t *GuardStatsTool) Execute(_ context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	limit := 10
	if v, ok := arguments["recent_limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	stats := t.deps.Metrics.GetStats()
	result := map[string]interface{}{
		"total_evaluations":   stats.TotalEvaluations,
		"blocked_evaluations": stats.BlockedEvaluations,
		"reports_generated":   stats.ReportsGenerated,
		"avg_latency_ms":      stats.AverageLatency.Milliseconds(),
		"findings_by_kind":    stats.FindingsByKind,
		"tool_usage":          stats.ToolUsage,
		"tool_errors":         stats.ToolErrors,
	}

	if t.deps.Audit.IsEnabled() {
		result["audit"] = t.deps.Audit.GetStats()
		result["recent_entries"] = t.deps.Audit.GetRecentEntries(limit)
	}

	return t.FormatResponse(result)
}

func (t *GuardStatsTool) Annotations() *mcp.ToolAnnotations {
	return ReadOnlyAnnotations("Guardrail Statistics")
}
