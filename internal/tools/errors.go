package tools

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sentrykit/guardrail-mcp-server/internal/errors"
)

// NewToolResultError creates a new tool result with an error message
func NewToolResultError(message string) *mcp.CallToolResult {
	if message == "" {
		message = "An unknown error occurred"
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: message,
			},
		},
		IsError: true,
	}
}

// NewToolResultErrorWithSuggestion creates a tool result with an error and recovery guidance
func NewToolResultErrorWithSuggestion(message, suggestion string) *mcp.CallToolResult {
	fullMessage := fmt.Sprintf("%s\n\nSuggestion: %s", message, suggestion)
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fullMessage,
			},
		},
		IsError: true,
	}
}

// NewToolResultFromError converts a structured error into a tool result,
// carrying its suggestion when present.
func NewToolResultFromError(err error) *mcp.CallToolResult {
	if se, ok := err.(*errors.StructuredError); ok && se.Suggestion != "" {
		return NewToolResultErrorWithSuggestion(se.Message, se.Suggestion)
	}
	return NewToolResultError(err.Error())
}
