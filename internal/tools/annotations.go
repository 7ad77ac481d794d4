package tools

import "github.com/modelcontextprotocol/go-sdk/mcp"

// Annotation helper functions to create common annotation patterns.
// These help ensure consistent annotation across all tools.

// boolPtr returns a pointer to a bool value
func boolPtr(b bool) *bool {
	return &b
}

// ReadOnlyAnnotations returns annotations for read-only tools (list, get
// operations). These tools don't modify any state and are safe to call
// repeatedly.
func ReadOnlyAnnotations(title string) *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		Title:          title,
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(false),
	}
}

// EvaluateAnnotations returns annotations for evaluation tools. Evaluations
// write reports to the archive and may fetch evidence URLs.
func EvaluateAnnotations(title string) *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		Title:           title,
		ReadOnlyHint:    false,
		DestructiveHint: boolPtr(false), // Writes reports, never removes anything
		IdempotentHint:  true,           // Same run yields the same verdict
		OpenWorldHint:   boolPtr(true),  // Claim verification reaches arbitrary URLs
	}
}

// DefaultAnnotations returns default annotations when no specific hints are
// needed.
func DefaultAnnotations(title string) *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		Title:         title,
		OpenWorldHint: boolPtr(false),
	}
}
