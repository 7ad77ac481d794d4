package checkers

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sentrykit/guardrail-mcp-server/internal/guard"
)

// locationKeywords maps canonical locations to the synonym sets whose
// substring presence marks the location as mentioned.
var locationKeywords = map[string][]string{
	"austin":       {"austin", "austin, tx", "austin texas", "atx", "austin metro"},
	"dallas":       {"dallas", "dallas, tx", "dfw", "dallas metro"},
	"round rock":   {"round rock"},
	"cedar park":   {"cedar park"},
	"pflugerville": {"pflugerville"},
	"leander":      {"leander"},
	"remote":       {"remote", "work from anywhere"},
}

// austinMetro lists the satellite cities eligible for the minor downgrade
// when Austin itself was requested.
var austinMetro = map[string]bool{
	"round rock":   true,
	"cedar park":   true,
	"pflugerville": true,
	"leander":      true,
}

var (
	seasonPattern      = regexp.MustCompile(`(?i)(spring|summer|fall|autumn|winter)\s+(20\d{2})`)
	payPattern         = regexp.MustCompile(`(?i)\$?(\d{1,3}(?:,\d{3})*|\d{4,})\s*(?:per\s*month|/month|monthly|a month)`)
	companySizePattern = regexp.MustCompile(`(?i)(\d{2,})\s*(?:\+\s*)?(?:employees|people|staff)\b`)
)

// DriftOptions carries the policy knobs the drift checker consumes.
type DriftOptions struct {
	// MinPay overrides the baseline pay extraction when positive.
	MinPay int
	// MinCompanySize overrides the baseline size extraction when positive.
	MinCompanySize int
	// TreatMetroMinor downgrades Austin-metro satellites to medium severity.
	TreatMetroMinor bool
}

// Drift compares the output text against the baseline (goal plus
// constraints) along four axes: location, timeframe, monthly pay and
// company size. It emits between zero and four findings.
func Drift(opts DriftOptions) Checker {
	return Checker{
		Name: NameDrift,
		Run: func(_ context.Context, run *guard.RunInput) ([]guard.Finding, error) {
			// The single-space join keeps numbers at the goal/constraint
			// boundary matchable, same as the upstream scanner.
			baseline := strings.Join(append([]string{run.Goal}, run.Constraints...), " ")
			var output string
			if run.Output != nil {
				output = run.Output.Text
			}

			var findings []guard.Finding

			desired := extractLocations(baseline)
			observed := extractLocations(output)
			if label, offending := classifyLocations(desired, observed, opts.TreatMetroMinor); label != "" {
				severity := guard.SeverityHigh
				if label == "minor" {
					severity = guard.SeverityMedium
				}
				findings = append(findings, guard.Finding{
					Kind:     "goal_drift",
					Severity: severity,
					Details:  "Response references disallowed location(s)",
					Evidence: map[string]any{
						"expected":       sortedSlice(desired),
						"observed":       sortedSlice(observed),
						"classification": label,
						"offending":      sortedSlice(offending),
					},
				})
			}

			desiredTimes := extractTimeframes(baseline)
			observedTimes := extractTimeframes(output)
			if len(desiredTimes) > 0 && len(observedTimes) > 0 && disjoint(desiredTimes, observedTimes) {
				findings = append(findings, guard.Finding{
					Kind:     "goal_drift",
					Severity: guard.SeverityHigh,
					Details:  "Response timeframe deviates from requested goal",
					Evidence: map[string]any{
						"expected":       sortedSlice(desiredTimes),
						"observed":       sortedSlice(observedTimes),
						"classification": "major",
					},
				})
			}

			minPay := opts.MinPay
			if minPay == 0 {
				minPay = extractPay(baseline)
			}
			observedPay := extractPay(output)
			if minPay > 0 && observedPay > 0 && observedPay < minPay {
				findings = append(findings, guard.Finding{
					Kind:     "goal_drift",
					Severity: guard.SeverityHigh,
					Details:  fmt.Sprintf("Pay $%d below threshold $%d", observedPay, minPay),
					Evidence: map[string]any{
						"expected_min":   minPay,
						"observed":       observedPay,
						"classification": "major",
					},
				})
			}

			minSize := opts.MinCompanySize
			if minSize == 0 {
				minSize = extractCompanySize(baseline)
			}
			observedSize := extractCompanySize(output)
			if minSize > 0 && observedSize > 0 && observedSize < minSize {
				findings = append(findings, guard.Finding{
					Kind:     "goal_drift",
					Severity: guard.SeverityHigh,
					Details:  "Company size below requested minimum",
					Evidence: map[string]any{
						"expected_min":   minSize,
						"observed":       observedSize,
						"classification": "major",
					},
				})
			}

			return findings, nil
		},
	}
}

func extractLocations(text string) map[string]bool {
	lowered := strings.ToLower(text)
	hits := map[string]bool{}
	for canonical, keywords := range locationKeywords {
		for _, keyword := range keywords {
			if strings.Contains(lowered, keyword) {
				hits[canonical] = true
				break
			}
		}
	}
	return hits
}

// classifyLocations returns "major" or "minor" plus the offending set, or
// ("", nil) when there is nothing to report. The metro downgrade is
// asymmetric: it applies only when Austin itself was requested.
func classifyLocations(desired, observed map[string]bool, treatMetroMinor bool) (string, map[string]bool) {
	if len(desired) == 0 || len(observed) == 0 {
		return "", nil
	}

	major := map[string]bool{}
	minor := map[string]bool{}
	for location := range observed {
		if desired[location] {
			continue
		}
		if treatMetroMinor && desired["austin"] && austinMetro[location] {
			minor[location] = true
		} else {
			major[location] = true
		}
	}

	if len(major) > 0 {
		return "major", major
	}
	if len(minor) > 0 {
		return "minor", minor
	}
	return "", nil
}

func extractTimeframes(text string) map[string]bool {
	frames := map[string]bool{}
	for _, match := range seasonPattern.FindAllStringSubmatch(text, -1) {
		frames[strings.ToLower(match[1]+" "+match[2])] = true
	}
	return frames
}

func extractPay(text string) int {
	match := payPattern.FindStringSubmatch(text)
	if match == nil {
		return 0
	}
	value, err := strconv.Atoi(strings.ReplaceAll(match[1], ",", ""))
	if err != nil {
		return 0
	}
	return value
}

func extractCompanySize(text string) int {
	match := companySizePattern.FindStringSubmatch(text)
	if match == nil {
		return 0
	}
	value, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return value
}

func disjoint(a, b map[string]bool) bool {
	for item := range a {
		if b[item] {
			return false
		}
	}
	return true
}

func sortedSlice(set map[string]bool) []string {
	items := make([]string, 0, len(set))
	for item := range set {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}
