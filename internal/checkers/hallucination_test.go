package checkers

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	guarderrors "github.com/sentrykit/guardrail-mcp-server/internal/errors"
	"github.com/sentrykit/guardrail-mcp-server/internal/fetch"
	"github.com/sentrykit/guardrail-mcp-server/internal/guard"
)

func staticFetcher(pages map[string]string) fetch.Func {
	return func(_ context.Context, url string) (string, error) {
		page, ok := pages[url]
		if !ok {
			return "", guarderrors.NewNetworkError(fmt.Sprintf("Failed to fetch %s: connection refused", url))
		}
		return page, nil
	}
}

func runHallucination(t *testing.T, fetcher fetch.Func, claims []guard.Claim) []guard.Finding {
	t.Helper()
	checker := Hallucination(fetcher, nil)
	run := &guard.RunInput{
		Output: &guard.RunOutput{Text: "summary", Claims: claims},
	}
	findings, err := checker.Run(context.Background(), run)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	return findings
}

func TestHallucinationNoClaims(t *testing.T) {
	checker := Hallucination(staticFetcher(nil), nil)

	findings, err := checker.Run(context.Background(), &guard.RunInput{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if findings != nil {
		t.Errorf("run without output should yield nil, got %+v", findings)
	}

	findings, err = checker.Run(context.Background(), &guard.RunInput{
		Output: &guard.RunOutput{Text: "no claims here"},
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if findings != nil {
		t.Errorf("output without claims should yield nil, got %+v", findings)
	}
}

func TestHallucinationNoEvidenceURLs(t *testing.T) {
	findings := runHallucination(t, staticFetcher(nil), []guard.Claim{
		{Statement: "Pays $5,200 per month"},
	})

	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	finding := findings[0]
	if finding.Kind != "hallucination" || finding.Severity != guard.SeverityHigh {
		t.Errorf("got %q/%q, want hallucination/high", finding.Kind, finding.Severity)
	}
	if !reflect.DeepEqual(finding.Evidence["errors"], []string{"no_evidence_urls"}) {
		t.Errorf("errors = %v, want [no_evidence_urls]", finding.Evidence["errors"])
	}
}

func TestHallucinationContainsVerified(t *testing.T) {
	pages := map[string]string{
		"https://jobs.example.com/1": "<html><body>Software Intern pays $5,200 per month</body></html>",
	}
	findings := runHallucination(t, staticFetcher(pages), []guard.Claim{
		{
			Statement:    "Pays $5,200 per month",
			EvidenceURLs: []string{"https://jobs.example.com/1"},
			Extraction:   guard.Extraction{Kind: guard.ExtractionContains, Pattern: "$5,200 per month"},
		},
	})

	if len(findings) != 0 {
		t.Errorf("verified claim should yield no findings, got %+v", findings)
	}
}

func TestHallucinationContainsUnverified(t *testing.T) {
	pages := map[string]string{
		"https://jobs.example.com/1": "<html><body>Pays $3,000 per month</body></html>",
	}
	findings := runHallucination(t, staticFetcher(pages), []guard.Claim{
		{
			Statement:    "Pays $5,200 per month",
			EvidenceURLs: []string{"https://jobs.example.com/1"},
			Extraction:   guard.Extraction{Kind: guard.ExtractionContains, Pattern: "$5,200 per month"},
		},
	})

	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	finding := findings[0]
	if finding.Details != "Claim lacks verifiable evidence: Pays $5,200 per month" {
		t.Errorf("Details = %q", finding.Details)
	}
	// A containment miss is not an error, just an unverified claim
	if errs, _ := finding.Evidence["errors"].([]string); len(errs) != 0 {
		t.Errorf("errors = %v, want empty", errs)
	}
}

func TestHallucinationCSSVerified(t *testing.T) {
	pages := map[string]string{
		"https://jobs.example.com/1": `<html><body><span class="pay">$5,200 per month</span></body></html>`,
	}
	findings := runHallucination(t, staticFetcher(pages), []guard.Claim{
		{
			Statement:    "Pays $5,200 per month",
			EvidenceURLs: []string{"https://jobs.example.com/1"},
			Extraction: guard.Extraction{
				Kind:        guard.ExtractionCSS,
				Pattern:     "span.pay",
				MustInclude: "$5,200",
			},
		},
	})

	if len(findings) != 0 {
		t.Errorf("verified claim should yield no findings, got %+v", findings)
	}
}

func TestHallucinationFetchError(t *testing.T) {
	findings := runHallucination(t, staticFetcher(nil), []guard.Claim{
		{
			Statement:    "Pays $5,200 per month",
			EvidenceURLs: []string{"https://down.example.com/1"},
			Extraction:   guard.Extraction{Kind: guard.ExtractionContains, Pattern: "$5,200"},
		},
	})

	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	errs, _ := findings[0].Evidence["errors"].([]string)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	// Structured errors contribute only their message, not the code prefix
	want := "fetch_error:Failed to fetch https://down.example.com/1: connection refused"
	if errs[0] != want {
		t.Errorf("error = %q, want %q", errs[0], want)
	}
}

func TestHallucinationParseError(t *testing.T) {
	pages := map[string]string{
		"https://jobs.example.com/1": "<html><body>content</body></html>",
	}
	findings := runHallucination(t, staticFetcher(pages), []guard.Claim{
		{
			Statement:    "Listed under the pay section",
			EvidenceURLs: []string{"https://jobs.example.com/1"},
			Extraction: guard.Extraction{
				Kind:    guard.ExtractionXPath,
				Pattern: "//div/span",
			},
		},
	})

	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	errs, _ := findings[0].Evidence["errors"].([]string)
	if len(errs) != 1 || !strings.HasPrefix(errs[0], "parse_error:Unsupported XPath expression") {
		t.Errorf("errors = %v, want parse_error for unsupported xpath", errs)
	}
}

func TestHallucinationUnknownExtractionKind(t *testing.T) {
	pages := map[string]string{
		"https://jobs.example.com/1": "<html><body>content</body></html>",
	}
	findings := runHallucination(t, staticFetcher(pages), []guard.Claim{
		{
			Statement:    "Mystery claim",
			EvidenceURLs: []string{"https://jobs.example.com/1"},
			Extraction:   guard.Extraction{Kind: "jsonpath", Pattern: "$.pay"},
		},
	})

	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	errs, _ := findings[0].Evidence["errors"].([]string)
	if len(errs) != 1 || errs[0] != "parse_error:Unsupported extraction kind: jsonpath" {
		t.Errorf("errors = %v", errs)
	}
}

func TestHallucinationRegexMissingSnippet(t *testing.T) {
	pages := map[string]string{
		"https://jobs.example.com/1": "<html><body>pay: $3,000 per month</body></html>",
	}
	findings := runHallucination(t, staticFetcher(pages), []guard.Claim{
		{
			Statement:    "Pays $5,200 per month",
			EvidenceURLs: []string{"https://jobs.example.com/1"},
			Extraction: guard.Extraction{
				Kind:        guard.ExtractionRegex,
				Pattern:     `pay:\s*\$[\d,]+ per month`,
				MustInclude: "$5,200",
			},
		},
	})

	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	errs, _ := findings[0].Evidence["errors"].([]string)
	if len(errs) != 1 || errs[0] != "parse_error:Regex extraction missing required snippet" {
		t.Errorf("errors = %v", errs)
	}
}

func TestHallucinationErrorListTruncated(t *testing.T) {
	findings := runHallucination(t, staticFetcher(nil), []guard.Claim{
		{
			Statement: "Well sourced claim",
			EvidenceURLs: []string{
				"https://a.example.com",
				"https://b.example.com",
				"https://c.example.com",
				"https://d.example.com",
				"https://e.example.com",
			},
			Extraction: guard.Extraction{Kind: guard.ExtractionContains, Pattern: "anything"},
		},
	})

	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	errs, _ := findings[0].Evidence["errors"].([]string)
	if len(errs) != 3 {
		t.Errorf("error list should be capped at 3, got %d", len(errs))
	}
	urls, _ := findings[0].Evidence["urls"].([]string)
	if len(urls) != 5 {
		t.Errorf("urls evidence should keep all entries, got %d", len(urls))
	}
}

func TestHallucinationSecondURLVerifies(t *testing.T) {
	pages := map[string]string{
		"https://b.example.com": "<html><body>$5,200 per month confirmed</body></html>",
	}
	findings := runHallucination(t, staticFetcher(pages), []guard.Claim{
		{
			Statement:    "Pays $5,200 per month",
			EvidenceURLs: []string{"https://a.example.com", "https://b.example.com"},
			Extraction:   guard.Extraction{Kind: guard.ExtractionContains, Pattern: "$5,200"},
		},
	})

	if len(findings) != 0 {
		t.Errorf("later URL verifying the claim should clear it, got %+v", findings)
	}
}

func TestHallucinationStatementRedacted(t *testing.T) {
	findings := runHallucination(t, staticFetcher(nil), []guard.Claim{
		{Statement: "API key sk-ABCD1234EFGH5678 is valid"},
	})

	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	finding := findings[0]
	if strings.Contains(finding.Details, "sk-ABCD1234EFGH5678") {
		t.Errorf("Details leaked the secret: %q", finding.Details)
	}
	statement, _ := finding.Evidence["statement"].(string)
	if strings.Contains(statement, "sk-ABCD1234EFGH5678") {
		t.Errorf("statement evidence leaked the secret: %q", statement)
	}
}
