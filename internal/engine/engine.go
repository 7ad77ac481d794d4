// Package engine orchestrates the guardrail checkers over a single agent
// run and aggregates their findings into a verdict.
package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sentrykit/guardrail-mcp-server/internal/checkers"
	"github.com/sentrykit/guardrail-mcp-server/internal/fetch"
	"github.com/sentrykit/guardrail-mcp-server/internal/guard"
	"github.com/sentrykit/guardrail-mcp-server/internal/redact"
	"github.com/sentrykit/guardrail-mcp-server/internal/report"
)

// Options configures an Engine beyond its policy. The zero value selects the
// default fetcher, the built-in report template, a no-op logger and the
// default override-phrase list.
type Options struct {
	// Fetcher retrieves evidence documents for claim verification. Nil
	// selects the default HTTP fetcher.
	Fetcher fetch.Func

	// ReportTemplate overrides the built-in report HTML template.
	ReportTemplate string

	// OverridePhrases overrides the context-poisoning phrase list. Nil
	// selects the defaults.
	OverridePhrases []string

	Logger *zap.Logger
}

// Engine evaluates agent runs against a fixed policy. An Engine holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	policy   *guard.Policy
	checkers []checkers.Checker
	reporter *report.Builder
	logger   *zap.Logger
}

// New constructs an engine for the given policy. The checker order is fixed
// and part of the contract: tool firewall, context poisoning, jailbreak,
// leaks, drift, hallucination.
func New(policy *guard.Policy, opts Options) *Engine {
	if policy == nil {
		policy = guard.NewPolicy()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("engine")

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = fetch.New(fetch.Options{}, logger).Text
	}

	return &Engine{
		policy: policy,
		checkers: []checkers.Checker{
			checkers.ToolFirewall(policy),
			checkers.Poisoning(policy, opts.OverridePhrases),
			checkers.Jailbreak(),
			checkers.Leaks(),
			checkers.Drift(checkers.DriftOptions{
				MinPay:          policy.MinPayThreshold,
				MinCompanySize:  policy.MinCompanySize,
				TreatMetroMinor: policy.TreatMetroAsMinor,
			}),
			checkers.Hallucination(fetcher, logger),
		},
		reporter: report.NewBuilder(opts.ReportTemplate, logger),
		logger:   logger,
	}
}

// Policy returns the engine's policy.
func (e *Engine) Policy() *guard.Policy {
	return e.policy
}

// Evaluate runs every checker over the run and aggregates the findings into
// a verdict. It never returns an error: a failing checker is replaced by a
// single internal_error finding and the remaining checkers still run.
func (e *Engine) Evaluate(ctx context.Context, run *guard.RunInput) *guard.Verdict {
	var findings []guard.Finding
	for _, checker := range e.checkers {
		findings = append(findings, e.runChecker(ctx, checker, run)...)
	}

	// Nothing leaves the engine unredacted, whichever checker produced it.
	for i := range findings {
		findings[i].Details = redact.Secrets(findings[i].Details)
		if evidence, ok := redact.Tree(findings[i].Evidence).(map[string]any); ok {
			findings[i].Evidence = evidence
		}
	}

	var score float64
	for _, finding := range findings {
		score += finding.Severity.Weight()
	}

	verdict := &guard.Verdict{
		Blocked:  e.shouldBlock(findings),
		Reason:   redact.Secrets(reason(findings)),
		Score:    score,
		Findings: findings,
	}
	verdict.Report = e.reporter.Render(verdict)

	e.logger.Debug("Evaluation complete",
		zap.Bool("blocked", verdict.Blocked),
		zap.Float64("score", verdict.Score),
		zap.Int("findings", len(verdict.Findings)))
	return verdict
}

// runChecker isolates one checker: an error or panic collapses into a single
// low-severity internal_error finding so later checkers still run.
func (e *Engine) runChecker(ctx context.Context, checker checkers.Checker, run *guard.RunInput) (findings []guard.Finding) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Checker panicked",
				zap.String("checker", checker.Name),
				zap.Any("panic", r))
			findings = []guard.Finding{internalError(checker.Name, fmt.Sprintf("%v", r))}
		}
	}()

	findings, err := checker.Run(ctx, run)
	if err != nil {
		e.logger.Error("Checker failed",
			zap.String("checker", checker.Name),
			zap.Error(err))
		return []guard.Finding{internalError(checker.Name, err.Error())}
	}
	return findings
}

func internalError(checker, msg string) guard.Finding {
	return guard.Finding{
		Kind:     "internal_error",
		Severity: guard.SeverityLow,
		Details:  fmt.Sprintf("Checker %s failed: %s", checker, msg),
		Evidence: map[string]any{"checker": checker},
	}
}

func reason(findings []guard.Finding) string {
	if len(findings) == 0 {
		return "No findings"
	}
	kinds := map[string]bool{}
	for _, finding := range findings {
		kinds[finding.Kind] = true
	}
	sorted := make([]string, 0, len(kinds))
	for kind := range kinds {
		sorted = append(sorted, kind)
	}
	sort.Strings(sorted)
	return strings.Join(sorted, "; ")
}

// shouldBlock applies the block-key algebra: each finding produces a small
// candidate key set which is intersected with policy.block_on. An empty
// block_on never blocks.
func (e *Engine) shouldBlock(findings []guard.Finding) bool {
	if len(e.policy.BlockOn) == 0 {
		return false
	}
	for i := range findings {
		finding := &findings[i]
		keys := []string{
			finding.Kind,
			finding.Kind + ":any",
			finding.Kind + ":" + string(finding.Severity),
		}
		if classification, ok := finding.Classification(); ok {
			keys = append(keys, finding.Kind+":"+classification)
		}
		for _, key := range keys {
			if e.policy.BlockOn[key] {
				return true
			}
		}
	}
	return false
}
