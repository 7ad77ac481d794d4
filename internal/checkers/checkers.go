// Package checkers implements the six deterministic analytic units the
// engine drives. Each checker is a named function value producing findings
// from a run; the engine invokes them in a fixed order and isolates their
// failures.
package checkers

import (
	"context"

	"github.com/sentrykit/guardrail-mcp-server/internal/guard"
)

// Checker couples a checker's identity with its invocation. The engine
// iterates an ordered slice of these, so the name is available for tagging
// internal-error findings when a checker fails.
type Checker struct {
	Name string
	Run  func(ctx context.Context, run *guard.RunInput) ([]guard.Finding, error)
}

// Checker names, also used as finding evidence when a checker fails.
const (
	NameToolFirewall  = "tool_firewall"
	NamePoisoning     = "context_poisoning"
	NameJailbreak     = "jailbreak"
	NameLeaks         = "leaks"
	NameDrift         = "drift"
	NameHallucination = "hallucination"
)
