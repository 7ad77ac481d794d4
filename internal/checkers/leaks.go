package checkers

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/sentrykit/guardrail-mcp-server/internal/guard"
	"github.com/sentrykit/guardrail-mcp-server/internal/redact"
)

var piiPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
	regexp.MustCompile(`\b\+?1?[-.\s]?(?:\(\d{3}\)|\d{3})[-.\s]?\d{3}[-.\s]?\d{4}\b`),
}

// entropyThreshold suppresses low-diversity secret matches such as an AKIA
// prefix followed by repeated characters.
const entropyThreshold = 3.5

// Leaks scans the output text, claim statements and context chunks for
// secret material and PII. Secret matches below the entropy threshold are
// dropped; retained values are redacted before they enter evidence.
func Leaks() Checker {
	return Checker{
		Name: NameLeaks,
		Run: func(_ context.Context, run *guard.RunInput) ([]guard.Finding, error) {
			var texts []string
			if run.Output != nil {
				texts = append(texts, run.Output.Text)
				for _, claim := range run.Output.Claims {
					texts = append(texts, claim.Statement)
				}
			}
			for _, chunk := range run.Contexts {
				texts = append(texts, chunk.Text)
			}
			blob := strings.Join(texts, "\n")

			var findings []guard.Finding
			for _, match := range scan(blob, redact.SecretPatterns) {
				if shannonEntropy(match) < entropyThreshold {
					continue
				}
				findings = append(findings, guard.Finding{
					Kind:     "data_leak",
					Severity: guard.SeverityHigh,
					Details:  "Detected potential secret in output",
					Evidence: map[string]any{"value": redact.Secrets(match)},
				})
			}

			if hits := scan(blob, piiPatterns); len(hits) > 0 {
				if len(hits) > 5 {
					hits = hits[:5]
				}
				samples := make([]string, len(hits))
				for i, hit := range hits {
					samples[i] = redact.Secrets(hit)
				}
				findings = append(findings, guard.Finding{
					Kind:     "data_leak",
					Severity: guard.SeverityMedium,
					Details:  "Detected potential PII",
					Evidence: map[string]any{"samples": samples},
				})
			}
			return findings, nil
		},
	}
}

func scan(text string, patterns []*regexp.Regexp) []string {
	var matches []string
	for _, pattern := range patterns {
		matches = append(matches, pattern.FindAllString(text, -1)...)
	}
	return matches
}

// shannonEntropy computes the Shannon entropy of the byte distribution of
// value, in bits.
func shannonEntropy(value string) float64 {
	if value == "" {
		return 0
	}
	var counts [256]int
	for i := 0; i < len(value); i++ {
		counts[value[i]]++
	}
	length := float64(len(value))
	var entropy float64
	for _, count := range counts {
		if count == 0 {
			continue
		}
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}
