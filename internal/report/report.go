// Package report renders verdicts into HTML via placeholder substitution
// into a caller-supplied template.
package report

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sentrykit/guardrail-mcp-server/internal/guard"
	"github.com/sentrykit/guardrail-mcp-server/internal/redact"
)

// DefaultTemplate is the built-in report shell. Embedders may supply their
// own template containing the same placeholders.
const DefaultTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Guardrail Report</title>
<style>
  body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem; color: #1a1a2e; }
  .status { display: inline-block; padding: 0.3rem 0.9rem; border-radius: 4px; font-weight: 600; }
  .status.blocked { background: #fde8e8; color: #9b1c1c; }
  .status.allowed { background: #def7ec; color: #03543f; }
  table { border-collapse: collapse; margin-top: 1rem; width: 100%; }
  th, td { border: 1px solid #d1d5db; padding: 0.5rem 0.75rem; text-align: left; vertical-align: top; }
  th { background: #f3f4f6; }
  td.severity-high { color: #9b1c1c; font-weight: 600; }
  td.severity-medium { color: #92400e; }
  td.severity-low { color: #374151; }
  ul { margin: 0; padding-left: 1.2rem; }
</style>
</head>
<body>
<h1>Guardrail Evaluation Report</h1>
<p><span class="status {{STATUS_CLASS}}">{{STATUS_TEXT}}</span></p>
<p><strong>Score:</strong> {{SCORE}}</p>
<p><strong>Reason:</strong> {{REASON}}</p>
<h2>Findings</h2>
{{FINDINGS_SECTION}}
</body>
</html>
`

var titleCaser = cases.Title(language.English)

// Builder renders verdicts against a fixed template.
type Builder struct {
	template string
	logger   *zap.Logger
}

// NewBuilder returns a Builder for the given template. An empty template
// selects DefaultTemplate.
func NewBuilder(template string, logger *zap.Logger) *Builder {
	if template == "" {
		template = DefaultTemplate
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{template: template, logger: logger.Named("report")}
}

// Render serializes the verdict into a sanitized data map and substitutes it
// into the template. Every string passes through the redaction filter before
// it reaches the HTML.
func (b *Builder) Render(verdict *guard.Verdict) *guard.Report {
	data := serializeVerdict(verdict)

	statusClass, statusText := "allowed", "Allowed"
	if verdict.Blocked {
		statusClass, statusText = "blocked", "Blocked"
	}

	replacer := strings.NewReplacer(
		"{{STATUS_CLASS}}", html.EscapeString(statusClass),
		"{{STATUS_TEXT}}", html.EscapeString(statusText),
		"{{SCORE}}", fmt.Sprintf("%.2f", verdict.Score),
		"{{REASON}}", html.EscapeString(data["reason"].(string)),
		"{{FINDINGS_SECTION}}", findingsSection(data),
	)
	return &guard.Report{HTML: replacer.Replace(b.template), Data: data}
}

func serializeVerdict(verdict *guard.Verdict) map[string]any {
	findings := make([]map[string]any, 0, len(verdict.Findings))
	for _, finding := range verdict.Findings {
		evidence, _ := redact.Tree(finding.Evidence).(map[string]any)
		findings = append(findings, map[string]any{
			"kind":     finding.Kind,
			"severity": string(finding.Severity),
			"details":  redact.Secrets(finding.Details),
			"evidence": evidence,
		})
	}
	return map[string]any{
		"blocked":  verdict.Blocked,
		"score":    verdict.Score,
		"reason":   redact.Secrets(verdict.Reason),
		"findings": findings,
	}
}

func findingsSection(data map[string]any) string {
	findings := data["findings"].([]map[string]any)
	if len(findings) == 0 {
		return "<p>No findings.</p>"
	}

	var rows strings.Builder
	for _, finding := range findings {
		severity := finding["severity"].(string)
		var items strings.Builder
		evidence, _ := finding["evidence"].(map[string]any)
		for _, key := range sortedKeys(evidence) {
			items.WriteString("<li><strong>")
			items.WriteString(html.EscapeString(key))
			items.WriteString(":</strong> ")
			items.WriteString(html.EscapeString(stringify(evidence[key])))
			items.WriteString("</li>")
		}
		rows.WriteString("<tr>")
		rows.WriteString("<td>" + html.EscapeString(finding["kind"].(string)) + "</td>")
		rows.WriteString("<td class='severity-" + html.EscapeString(severity) + "'>" +
			html.EscapeString(titleCaser.String(severity)) + "</td>")
		rows.WriteString("<td>" + html.EscapeString(finding["details"].(string)) + "</td>")
		rows.WriteString("<td><ul>" + items.String() + "</ul></td>")
		rows.WriteString("</tr>")
	}

	return "<table>" +
		"<thead><tr><th>Kind</th><th>Severity</th><th>Details</th><th>Evidence</th></tr></thead>" +
		"<tbody>" + rows.String() + "</tbody>" +
		"</table>"
}

// stringify flattens an evidence value into a single display string. Map
// keys are emitted in sorted order so renders are stable.
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		parts := make([]string, 0, len(v))
		for _, key := range sortedKeys(v) {
			parts = append(parts, key+": "+stringify(v[key]))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
