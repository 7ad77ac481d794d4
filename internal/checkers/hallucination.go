package checkers

import (
	"context"
	"strings"

	guarderrors "github.com/sentrykit/guardrail-mcp-server/internal/errors"
	"github.com/sentrykit/guardrail-mcp-server/internal/extract"
	"github.com/sentrykit/guardrail-mcp-server/internal/fetch"
	"github.com/sentrykit/guardrail-mcp-server/internal/guard"
	"github.com/sentrykit/guardrail-mcp-server/internal/redact"
	"go.uber.org/zap"
)

// Hallucination verifies every claim in the run output against its evidence
// URLs using the deterministic extractors. Fetch and parse failures are
// absorbed into a per-claim error list; an unverifiable claim yields exactly
// one high-severity finding.
func Hallucination(fetcher fetch.Func, logger *zap.Logger) Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("hallucination")

	return Checker{
		Name: NameHallucination,
		Run: func(ctx context.Context, run *guard.RunInput) ([]guard.Finding, error) {
			if run.Output == nil || len(run.Output.Claims) == 0 {
				return nil, nil
			}

			var findings []guard.Finding
			for _, claim := range run.Output.Claims {
				valid, claimErrors := verifyClaim(ctx, claim, fetcher, logger)
				if valid {
					continue
				}
				if len(claimErrors) > 3 {
					claimErrors = claimErrors[:3]
				}
				redacted := make([]string, len(claimErrors))
				for i, msg := range claimErrors {
					redacted[i] = redact.Secrets(msg)
				}
				findings = append(findings, guard.Finding{
					Kind:     "hallucination",
					Severity: guard.SeverityHigh,
					Details:  "Claim lacks verifiable evidence: " + redact.Secrets(claim.Statement),
					Evidence: map[string]any{
						"statement": redact.Secrets(claim.Statement),
						"urls":      claim.EvidenceURLs,
						"errors":    redacted,
					},
				})
			}
			return findings, nil
		},
	}
}

func verifyClaim(ctx context.Context, claim guard.Claim, fetcher fetch.Func, logger *zap.Logger) (bool, []string) {
	if len(claim.EvidenceURLs) == 0 {
		return false, []string{"no_evidence_urls"}
	}

	var claimErrors []string
	for _, url := range claim.EvidenceURLs {
		document, err := fetcher(ctx, url)
		if err != nil {
			claimErrors = append(claimErrors, "fetch_error:"+errorMessage(err))
			logger.Debug("Claim fetch failed", zap.String("url", url), zap.Error(err))
			continue
		}
		ok, err := applyExtraction(claim.Extraction, document)
		if err != nil {
			if guarderrors.IsParseError(err) {
				claimErrors = append(claimErrors, "parse_error:"+errorMessage(err))
			} else {
				claimErrors = append(claimErrors, "unexpected_error:"+errorMessage(err))
			}
			logger.Debug("Claim extraction failed",
				zap.String("url", url),
				zap.String("pattern", claim.Extraction.Pattern),
				zap.Error(err))
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, claimErrors
}

// errorMessage strips the code/category prefix from structured errors so the
// per-claim error list carries only the human-readable message.
func errorMessage(err error) string {
	if se, ok := err.(*guarderrors.StructuredError); ok {
		return se.Message
	}
	return err.Error()
}

func applyExtraction(extraction guard.Extraction, document string) (bool, error) {
	target := extraction.MustInclude
	if target == "" {
		target = extraction.Pattern
	}

	switch extraction.Kind {
	case guard.ExtractionCSS:
		text, err := extract.CSS(document, extraction.Pattern, extraction.MustInclude)
		if err != nil {
			return false, err
		}
		return strings.Contains(strings.ToLower(text), strings.ToLower(target)), nil
	case guard.ExtractionXPath:
		text, err := extract.XPath(document, extraction.Pattern, extraction.MustInclude)
		if err != nil {
			return false, err
		}
		return strings.Contains(strings.ToLower(text), strings.ToLower(target)), nil
	case guard.ExtractionRegex:
		text, err := extract.Regex(document, extraction.Pattern)
		if err != nil {
			return false, err
		}
		if extraction.MustInclude != "" && !strings.Contains(strings.ToLower(text), strings.ToLower(extraction.MustInclude)) {
			return false, guarderrors.NewParseError("Regex extraction missing required snippet")
		}
		return true, nil
	case guard.ExtractionContains:
		return strings.Contains(strings.ToLower(document), strings.ToLower(target)), nil
	default:
		return false, guarderrors.NewParseError("Unsupported extraction kind: " + string(extraction.Kind))
	}
}
