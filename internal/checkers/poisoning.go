package checkers

import (
	"context"
	"strings"

	"github.com/sentrykit/guardrail-mcp-server/internal/guard"
	"github.com/sentrykit/guardrail-mcp-server/internal/urlutil"
)

// DefaultOverridePhrases is the fixed instruction-override phrase set
// scanned for in retrieved context chunks.
var DefaultOverridePhrases = []string{
	"ignore previous instructions",
	"disregard policy",
	"override safety",
	"you are now evil",
	"reset your instructions",
}

// Poisoning scans context chunks for instruction-override phrases and tool
// calls for off-policy URL domains. A nil phrase list selects the defaults.
func Poisoning(policy *guard.Policy, overridePhrases []string) Checker {
	phrases := overridePhrases
	if phrases == nil {
		phrases = DefaultOverridePhrases
	}
	lowered := make([]string, len(phrases))
	for i, phrase := range phrases {
		lowered[i] = strings.ToLower(phrase)
	}
	allowedDomains := make(map[string]bool, len(policy.AllowedURLDomains))
	for domain := range policy.AllowedURLDomains {
		allowedDomains[strings.ToLower(domain)] = true
	}

	return Checker{
		Name: NamePoisoning,
		Run: func(_ context.Context, run *guard.RunInput) ([]guard.Finding, error) {
			var findings []guard.Finding

			// At most one finding per chunk: the first phrase hit wins.
			for _, chunk := range run.Contexts {
				text := strings.ToLower(chunk.Text)
				for _, phrase := range lowered {
					if strings.Contains(text, phrase) {
						findings = append(findings, guard.Finding{
							Kind:     "context_poisoning",
							Severity: guard.SeverityHigh,
							Details:  "Context chunk " + chunk.Source + " contains override phrase",
							Evidence: map[string]any{"phrase": phrase, "source": chunk.Source},
						})
						break
					}
				}
			}

			if len(allowedDomains) > 0 {
				for _, call := range run.ToolCalls {
					rawURL, _ := call.Args["url"].(string)
					domain := urlutil.DomainOf(rawURL)
					if domain == "" || allowedDomains[domain] {
						continue
					}
					findings = append(findings, guard.Finding{
						Kind:     "context_poisoning",
						Severity: guard.SeverityMedium,
						Details:  "Tool call " + call.Name + " references off-policy domain " + domain,
						Evidence: map[string]any{"tool": call.Name, "domain": domain},
					})
				}
			}
			return findings, nil
		},
	}
}
