package checkers

import (
	"context"

	"github.com/sentrykit/guardrail-mcp-server/internal/guard"
)

// ToolFirewall flags tool calls whose name is not in the policy allow-list.
// An empty allow-list disables the check.
func ToolFirewall(policy *guard.Policy) Checker {
	return Checker{
		Name: NameToolFirewall,
		Run: func(_ context.Context, run *guard.RunInput) ([]guard.Finding, error) {
			if len(policy.AllowedToolNames) == 0 {
				return nil, nil
			}
			var findings []guard.Finding
			for _, call := range run.ToolCalls {
				if policy.AllowedToolNames[call.Name] {
					continue
				}
				findings = append(findings, guard.Finding{
					Kind:     "tool_firewall",
					Severity: guard.SeverityHigh,
					Details:  "Tool " + call.Name + " not in allow-list",
					Evidence: map[string]any{"tool": call.Name},
				})
			}
			return findings, nil
		},
	}
}
