package resources

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sentrykit/guardrail-mcp-server/internal/config"
	"github.com/sentrykit/guardrail-mcp-server/internal/guard"
	"github.com/sentrykit/guardrail-mcp-server/internal/metrics"
)

// promauto registers on the default Prometheus registry, so the test binary
// shares a single Metrics instance.
var sharedMetrics = metrics.New(zap.NewNop())

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	return NewRegistry(cfg, guard.NewPolicy(), sharedMetrics, zap.NewNop(), "1.0.0")
}

func readResource(t *testing.T, handler mcp.ResourceHandler, uri string) map[string]interface{} {
	t.Helper()
	result, err := handler(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uri},
	})
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &payload))
	return payload
}

func TestGetResources(t *testing.T) {
	registry := newTestRegistry(t)

	resources := registry.GetResources()
	require.Len(t, resources, 6)

	uris := map[string]bool{}
	for _, resource := range resources {
		require.NotNil(t, resource.Resource)
		require.NotNil(t, resource.Handler)
		uris[resource.Resource.URI] = true
	}
	for _, uri := range []string{
		"about://service", "policy://current", "config://current",
		"scenarios://catalog", "metrics://server", "health://status",
	} {
		assert.True(t, uris[uri], "missing resource %q", uri)
	}
}

func TestAboutResource(t *testing.T) {
	registry := newTestRegistry(t)

	payload := readResource(t, registry.aboutResource().Handler, "about://service")

	checkers, _ := payload["checkers"].([]interface{})
	assert.Len(t, checkers, 6)
	scoring, _ := payload["scoring"].(map[string]interface{})
	assert.Equal(t, 0.2, scoring["low"])
	assert.Equal(t, 1.0, scoring["high"])
}

func TestPolicyResource(t *testing.T) {
	registry := newTestRegistry(t)

	payload := readResource(t, registry.policyResource().Handler, "policy://current")

	assert.Contains(t, payload, "block_on")
	assert.Equal(t, true, payload["treat_metro_as_minor"])
	assert.Equal(t, true, payload["require_claims"])
}

func TestConfigResource(t *testing.T) {
	registry := newTestRegistry(t)

	payload := readResource(t, registry.configResource().Handler, "config://current")

	assert.Equal(t, "generated_reports", payload["reports_dir"])
	assert.Equal(t, "5s", payload["fetch_timeout"])
	assert.Equal(t, true, payload["fetch_cache"])
	assert.Equal(t, "1.0.0", payload["server_version"])
}

func TestScenariosResource(t *testing.T) {
	registry := newTestRegistry(t)

	result, err := registry.scenariosResource().Handler(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: "scenarios://catalog"},
	})
	require.NoError(t, err)

	var catalog []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &catalog))
	assert.Len(t, catalog, 3)
	assert.Contains(t, catalog[0], "variants")
}

func TestMetricsResource(t *testing.T) {
	registry := newTestRegistry(t)

	payload := readResource(t, registry.metricsResource().Handler, "metrics://server")

	assert.Contains(t, payload, "evaluations")
	assert.Contains(t, payload, "latency")
	assert.Contains(t, payload, "findings_by_kind")
}

func TestHealthResource(t *testing.T) {
	registry := newTestRegistry(t)

	payload := readResource(t, registry.healthResource().Handler, "health://status")

	assert.Equal(t, "healthy", payload["status"])
	details, _ := payload["details"].(map[string]interface{})
	require.NotNil(t, details)
	assert.Contains(t, details, "error_rate_percent")
}

func TestResourceTemplates(t *testing.T) {
	registry := newTestRegistry(t)

	templates := registry.GetResourceTemplates()
	require.Len(t, templates, 3)
	for _, template := range templates {
		assert.NotEmpty(t, template.URITemplate)
		assert.NotEmpty(t, template.Description)
	}
}

func TestTemplateHandler(t *testing.T) {
	registry := newTestRegistry(t)
	handler := registry.GetTemplateHandler()

	tests := []struct {
		uri  string
		key  string
		want string
	}{
		{"template://run/minimal", "run", "goal"},
		{"template://run/full", "run", "tool_calls"},
		{"template://policy/strict", "policy", "block_on"},
		{"template://policy/lenient", "policy", "block_on"},
		{"template://claim/css", "claim", "extraction"},
		{"template://claim/contains", "claim", "extraction"},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			payload := readResource(t, handler, tt.uri)
			section, _ := payload[tt.key].(map[string]interface{})
			require.NotNil(t, section, "missing %q section", tt.key)
			assert.Contains(t, section, tt.want)
		})
	}
}

func TestTemplateHandlerUnknownURI(t *testing.T) {
	registry := newTestRegistry(t)
	handler := registry.GetTemplateHandler()

	payload := readResource(t, handler, "template://bogus/x")
	assert.Equal(t, "Unknown template type", payload["error"])
}

func TestStrictPolicyTemplateBlockKeys(t *testing.T) {
	payload := getPolicyTemplate("strict")
	policy, _ := payload["policy"].(map[string]interface{})
	require.NotNil(t, policy)

	blockOn, _ := policy["block_on"].([]string)
	assert.Contains(t, blockOn, "data_leak")
	assert.NotContains(t, blockOn, "leaks", "block keys use finding kinds, not checker names")
}
