// Package guard defines the data model shared by the evaluation engine and
// its checkers: the structured record of one agent invocation, the findings
// the checkers produce, and the verdict the engine returns.
package guard

// Severity represents the impact level of a finding.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// severityWeights maps each severity to its contribution to the risk score.
// Unknown severities contribute 0.
var severityWeights = map[Severity]float64{
	SeverityLow:    0.2,
	SeverityMedium: 0.5,
	SeverityHigh:   1.0,
}

// Weight returns the risk-score contribution of a severity.
func (s Severity) Weight() float64 {
	return severityWeights[s]
}

// ExtractionKind selects the verification strategy for a claim.
type ExtractionKind string

const (
	ExtractionCSS      ExtractionKind = "css"
	ExtractionXPath    ExtractionKind = "xpath"
	ExtractionRegex    ExtractionKind = "regex"
	ExtractionContains ExtractionKind = "contains"
)

// Extraction describes how to verify a claim against a fetched document.
type Extraction struct {
	Kind        ExtractionKind `json:"kind"`
	Pattern     string         `json:"pattern"`
	MustInclude string         `json:"must_include,omitempty"`
}

// Claim is a structured assertion with evidence URLs and a deterministic
// extraction strategy used to verify it.
type Claim struct {
	Statement    string     `json:"statement"`
	EvidenceURLs []string   `json:"evidence_urls"`
	Extraction   Extraction `json:"extraction"`
}

// ContextChunk is one retrieved context document handed to the agent.
type ContextChunk struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// ToolCall records a single tool invocation made by the agent.
type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Message is one conversation turn. Role strings are opaque to the engine.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RunOutput is the agent's final output: free text plus optional claims.
type RunOutput struct {
	Text   string  `json:"text"`
	Claims []Claim `json:"claims,omitempty"`
}

// RunInput is the structured record of one agent invocation. Any field may
// be empty; Output may be nil for runs that produced no final answer.
type RunInput struct {
	Goal        string         `json:"goal"`
	Constraints []string       `json:"constraints"`
	Messages    []Message      `json:"messages"`
	Contexts    []ContextChunk `json:"contexts"`
	ToolCalls   []ToolCall     `json:"tool_calls"`
	Output      *RunOutput     `json:"output,omitempty"`
}

// Finding is one atomic observation produced by a checker. Evidence is a
// heterogeneous tree of strings, numbers, string slices and nested maps; a
// string-valued "classification" entry participates in the block rule.
type Finding struct {
	Kind     string         `json:"kind"`
	Severity Severity       `json:"severity"`
	Details  string         `json:"details"`
	Evidence map[string]any `json:"evidence,omitempty"`
}

// Classification returns the evidence classification entry, if present and
// string-valued.
func (f *Finding) Classification() (string, bool) {
	if f.Evidence == nil {
		return "", false
	}
	c, ok := f.Evidence["classification"].(string)
	return c, ok
}

// Report bundles the rendered HTML report with the structured summary it was
// rendered from.
type Report struct {
	HTML string         `json:"html"`
	Data map[string]any `json:"data"`
}

// Verdict is the aggregate result of one evaluation. It is produced by one
// call to Evaluate and immutable thereafter.
type Verdict struct {
	Blocked  bool      `json:"blocked"`
	Reason   string    `json:"reason"`
	Score    float64   `json:"score"`
	Findings []Finding `json:"findings"`
	Report   *Report   `json:"report,omitempty"`
}
