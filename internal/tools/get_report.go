package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GetReportTool retrieves an archived evaluation report by ID.
type GetReportTool struct {
	*BaseTool
}

func NewGetReportTool(deps *Deps) *GetReportTool {
	return &GetReportTool{BaseTool: NewBaseTool(deps)}
}

func (t *GetReportTool) Name() string {
	return "get_report"
}

func (t *GetReportTool) Description() string {
	return "Retrieve the rendered HTML of an archived evaluation report by its ID"
}

func (t *GetReportTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"report_id": map[string]interface{}{
				"type":        "string",
				"description": "Report ID as returned in report_url (with or without the .html suffix)",
			},
		},
		"required": []string{"report_id"},
	}
}

func (t *GetReportTool) Execute(_ context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	id := stringParam(arguments, "report_id")
	if id == "" {
		return NewToolResultErrorWithSuggestion(
			"Required parameter 'report_id' is missing",
			"Provide the report ID from a previous evaluation",
		), nil
	}

	html, err := t.deps.Store.Read(id)
	if err != nil {
		return NewToolResultFromError(err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: html},
		},
	}, nil
}

func (t *GetReportTool) Annotations() *mcp.ToolAnnotations {
	return ReadOnlyAnnotations("Get Evaluation Report")
}
