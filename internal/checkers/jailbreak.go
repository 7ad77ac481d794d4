package checkers

import (
	"context"
	"strings"

	"github.com/sentrykit/guardrail-mcp-server/internal/guard"
)

// jailbreakPhrases is the fixed directive list scanned across the goal,
// constraints, messages and output.
var jailbreakPhrases = []string{
	"do anything now",
	"devmode++",
	"unlock hidden mode",
	"no rules apply",
}

// Jailbreak flags known jailbreak directives anywhere in the run's text.
func Jailbreak() Checker {
	return Checker{
		Name: NameJailbreak,
		Run: func(_ context.Context, run *guard.RunInput) ([]guard.Finding, error) {
			texts := make([]string, 0, 2+len(run.Constraints)+len(run.Messages))
			texts = append(texts, run.Goal)
			texts = append(texts, run.Constraints...)
			for _, msg := range run.Messages {
				texts = append(texts, msg.Content)
			}
			if run.Output != nil {
				texts = append(texts, run.Output.Text)
			}
			blob := strings.ToLower(strings.Join(texts, "\n"))

			var findings []guard.Finding
			for _, phrase := range jailbreakPhrases {
				if strings.Contains(blob, phrase) {
					findings = append(findings, guard.Finding{
						Kind:     "jailbreak",
						Severity: guard.SeverityHigh,
						Details:  "Detected jailbreak directive: " + phrase,
						Evidence: map[string]any{"phrase": phrase},
					})
				}
			}
			return findings, nil
		},
	}
}
