package checkers

import (
	"context"
	"testing"

	"github.com/sentrykit/guardrail-mcp-server/internal/guard"
)

func TestToolFirewall(t *testing.T) {
	policy := guard.NewPolicy()
	policy.AllowedToolNames = map[string]bool{"job_scraper": true}
	checker := ToolFirewall(policy)

	run := &guard.RunInput{
		ToolCalls: []guard.ToolCall{
			{Name: "job_scraper"},
			{Name: "shell_exec"},
			{Name: "email_sender"},
		},
	}

	findings, err := checker.Run(context.Background(), run)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(findings))
	}
	for _, finding := range findings {
		if finding.Kind != "tool_firewall" {
			t.Errorf("Kind = %q, want tool_firewall", finding.Kind)
		}
		if finding.Severity != guard.SeverityHigh {
			t.Errorf("Severity = %q, want high", finding.Severity)
		}
	}
	if findings[0].Evidence["tool"] != "shell_exec" {
		t.Errorf("first finding tool = %v, want shell_exec", findings[0].Evidence["tool"])
	}
}

func TestToolFirewallEmptyAllowListDisabled(t *testing.T) {
	checker := ToolFirewall(guard.NewPolicy())
	run := &guard.RunInput{
		ToolCalls: []guard.ToolCall{{Name: "anything"}},
	}

	findings, err := checker.Run(context.Background(), run)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("empty allow-list should disable the check, got %d findings", len(findings))
	}
}

func TestToolFirewallNoToolCalls(t *testing.T) {
	policy := guard.NewPolicy()
	policy.AllowedToolNames = map[string]bool{"job_scraper": true}
	checker := ToolFirewall(policy)

	findings, err := checker.Run(context.Background(), &guard.RunInput{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("expected no findings for a run without tool calls, got %d", len(findings))
	}
}
