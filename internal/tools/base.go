package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/sentrykit/guardrail-mcp-server/internal/audit"
	"github.com/sentrykit/guardrail-mcp-server/internal/engine"
	"github.com/sentrykit/guardrail-mcp-server/internal/fetch"
	"github.com/sentrykit/guardrail-mcp-server/internal/guard"
	"github.com/sentrykit/guardrail-mcp-server/internal/metrics"
	"github.com/sentrykit/guardrail-mcp-server/internal/reportstore"
	"github.com/sentrykit/guardrail-mcp-server/internal/tracing"
)

// Deps bundles the shared dependencies every tool needs: the base policy,
// the evidence fetcher, the report archive and the observability plumbing.
type Deps struct {
	Policy         *guard.Policy
	Fetcher        fetch.Func
	ReportTemplate string
	Store          *reportstore.Store
	Metrics        *metrics.Metrics
	Audit          *audit.Logger
	Logger         *zap.Logger
}

// BaseTool provides common functionality for all tools
type BaseTool struct {
	deps   *Deps
	logger *zap.Logger
}

// NewBaseTool creates a new base tool
func NewBaseTool(deps *Deps) *BaseTool {
	return &BaseTool{
		deps:   deps,
		logger: deps.Logger,
	}
}

// DefaultTimeout returns 0 so the server default applies.
func (t *BaseTool) DefaultTimeout() time.Duration {
	return 0
}

// Engine builds an evaluation engine for the base policy with the given
// overrides applied.
func (t *BaseTool) Engine(overrides map[string]interface{}) *engine.Engine {
	policy := t.deps.Policy.Merge(overrides)
	return engine.New(policy, engine.Options{
		Fetcher:        t.deps.Fetcher,
		ReportTemplate: t.deps.ReportTemplate,
		Logger:         t.deps.Logger,
	})
}

// Evaluate runs one evaluation end to end: verdict, report persistence,
// metrics and audit. It returns the serialized verdict payload.
func (t *BaseTool) Evaluate(ctx context.Context, toolName string, eng *engine.Engine, run *guard.RunInput) (map[string]interface{}, error) {
	ctx, span := tracing.EvaluationSpan(ctx)
	defer span.End()

	start := time.Now()
	verdict := eng.Evaluate(ctx, run)
	latency := time.Since(start)
	tracing.SetVerdict(span, verdict.Blocked, verdict.Score, len(verdict.Findings))

	payload := map[string]interface{}{
		"blocked":  verdict.Blocked,
		"reason":   verdict.Reason,
		"score":    verdict.Score,
		"findings": serializeFindings(verdict.Findings),
	}

	if verdict.Report != nil {
		reportID, err := t.deps.Store.Save(verdict.Report.HTML)
		if err != nil {
			t.logger.Error("Failed to persist report", zap.Error(err))
		} else {
			payload["report_url"] = t.deps.Store.URL(reportID)
			t.deps.Metrics.RecordReport()
		}
	}

	t.deps.Metrics.RecordEvaluation(verdict.Blocked, verdict.Score, findingCounts(verdict.Findings), latency)
	t.deps.Audit.LogEvaluation(ctx, toolName, verdict.Blocked, verdict.Score, len(verdict.Findings), latency)

	return payload, nil
}

// FormatResponse formats a result map as pretty-printed JSON text content.
func (t *BaseTool) FormatResponse(result map[string]interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return NewToolResultError(fmt.Sprintf("Failed to serialize response: %v", err)), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil
}

func serializeFindings(findings []guard.Finding) []map[string]interface{} {
	serialized := make([]map[string]interface{}, 0, len(findings))
	for _, finding := range findings {
		serialized = append(serialized, map[string]interface{}{
			"kind":     finding.Kind,
			"severity": string(finding.Severity),
			"details":  finding.Details,
			"evidence": finding.Evidence,
		})
	}
	return serialized
}

func findingCounts(findings []guard.Finding) map[string]map[string]int {
	counts := map[string]map[string]int{}
	for _, finding := range findings {
		bySeverity := counts[finding.Kind]
		if bySeverity == nil {
			bySeverity = map[string]int{}
			counts[finding.Kind] = bySeverity
		}
		bySeverity[string(finding.Severity)]++
	}
	return counts
}
