package server

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sentrykit/guardrail-mcp-server/internal/metrics"
	"github.com/sentrykit/guardrail-mcp-server/internal/tracing"
)

// promauto registers on the default Prometheus registry, so the test binary
// shares a single Metrics instance.
var sharedMetrics = metrics.New(zap.NewNop())

func newHandlerServer() *Server {
	return &Server{
		logger:  zap.NewNop(),
		metrics: sharedMetrics,
	}
}

// faultyTool panics on execution unless fn is set.
type faultyTool struct {
	fn func(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error)
}

func (faultyTool) Name() string             { return "faulty_tool" }
func (faultyTool) Description() string      { return "test tool" }
func (faultyTool) InputSchema() interface{} { return map[string]interface{}{"type": "object"} }

func (faultyTool) Annotations() *mcp.ToolAnnotations { return nil }
func (faultyTool) DefaultTimeout() time.Duration     { return 0 }

func (f faultyTool) Execute(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	if f.fn != nil {
		return f.fn(ctx, args)
	}
	panic("exploded mid-execution")
}

func TestToolHandlerRecoversFromPanic(t *testing.T) {
	handler := newHandlerServer().toolHandler(faultyTool{})

	result, err := handler(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{},
	})
	require.NoError(t, err, "a panic must not surface as a protocol error")
	require.NotNil(t, result)
	assert.True(t, result.IsError)

	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "faulty_tool")
}

func TestToolHandlerRejectsMalformedArguments(t *testing.T) {
	handler := newHandlerServer().toolHandler(faultyTool{})

	_, err := handler(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Arguments: json.RawMessage(`{not json`)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal arguments")
}

func TestToolHandlerEstablishesTrace(t *testing.T) {
	tool := faultyTool{fn: func(ctx context.Context, _ map[string]interface{}) (*mcp.CallToolResult, error) {
		info := tracing.FromContext(ctx)
		assert.NotEmpty(t, info.TraceID)
		assert.NotEmpty(t, info.ParentSpanID, "each tool call should run in its own span")
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "ok"}}}, nil
	}}
	handler := newHandlerServer().toolHandler(tool)

	result, err := handler(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)
}
