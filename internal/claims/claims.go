// Package claims generates naive claims from free-form output text. Demo
// scenarios and the evaluate tool use it when a run arrives without
// structured claims.
package claims

import (
	"strings"

	"github.com/sentrykit/guardrail-mcp-server/internal/guard"
)

// Generate splits the output text on periods and turns up to the first three
// non-empty sentences into contains-claims against evidenceURL. An empty
// evidenceURL produces claims with no evidence, which the hallucination
// checker will flag.
func Generate(output *guard.RunOutput, evidenceURL string) []guard.Claim {
	if output == nil {
		return nil
	}

	var generated []guard.Claim
	for _, sentence := range strings.Split(output.Text, ".") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		var urls []string
		if evidenceURL != "" {
			urls = []string{evidenceURL}
		}
		generated = append(generated, guard.Claim{
			Statement:    sentence,
			EvidenceURLs: urls,
			Extraction: guard.Extraction{
				Kind:        guard.ExtractionContains,
				Pattern:     clip(sentence, 40),
				MustInclude: clip(sentence, 20),
			},
		})
		if len(generated) == 3 {
			break
		}
	}
	return generated
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
