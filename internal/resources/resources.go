// Package resources provides MCP resource handlers for the guardrail server.
// Resources expose read-only data to MCP clients: the active policy, server
// configuration, metrics, health and the demo scenario catalog.
package resources

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/sentrykit/guardrail-mcp-server/internal/config"
	"github.com/sentrykit/guardrail-mcp-server/internal/guard"
	"github.com/sentrykit/guardrail-mcp-server/internal/metrics"
	"github.com/sentrykit/guardrail-mcp-server/internal/scenarios"
)

// Registry holds all registered resources and their handlers
type Registry struct {
	config  *config.Config
	policy  *guard.Policy
	metrics *metrics.Metrics
	logger  *zap.Logger
	version string
}

// NewRegistry creates a new resource registry
func NewRegistry(cfg *config.Config, policy *guard.Policy, m *metrics.Metrics, logger *zap.Logger, version string) *Registry {
	return &Registry{
		config:  cfg,
		policy:  policy,
		metrics: m,
		logger:  logger,
		version: version,
	}
}

// RegisteredResource represents a resource with its definition and handler
type RegisteredResource struct {
	Resource *mcp.Resource
	Handler  mcp.ResourceHandler
}

// GetResources returns all registered resources with their handlers
func (r *Registry) GetResources() []RegisteredResource {
	return []RegisteredResource{
		r.aboutResource(),
		r.policyResource(),
		r.configResource(),
		r.scenariosResource(),
		r.metricsResource(),
		r.healthResource(),
	}
}

func (r *Registry) marshalResource(uri string, payload interface{}) (*mcp.ReadResourceResult, error) {
	content, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		r.logger.Error("Failed to marshal resource", zap.String("uri", uri), zap.Error(err))
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(content),
			},
		},
	}, nil
}

// aboutResource returns the about://service resource with server capabilities
func (r *Registry) aboutResource() RegisteredResource {
	return RegisteredResource{
		Resource: &mcp.Resource{
			URI:         "about://service",
			Name:        "about://service",
			Title:       "About the Guardrail Server",
			Description: "Service information, checker list and capabilities",
			MIMEType:    "application/json",
		},
		Handler: func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			aboutInfo := map[string]interface{}{
				"service": map[string]interface{}{
					"name":        "Guardrail MCP Server",
					"description": "Deterministic guardrail evaluation for autonomous agent runs",
				},
				"checkers": []string{
					"tool_firewall",
					"context_poisoning",
					"jailbreak",
					"leaks",
					"goal_drift",
					"hallucination",
				},
				"scoring": map[string]interface{}{
					"low":    guard.SeverityLow.Weight(),
					"medium": guard.SeverityMedium.Weight(),
					"high":   guard.SeverityHigh.Weight(),
				},
				"mcp_server": map[string]interface{}{
					"version":      r.version,
					"capabilities": []string{"tools", "prompts", "resources"},
				},
			}
			return r.marshalResource("about://service", aboutInfo)
		},
	}
}

// policyResource returns the policy://current resource
func (r *Registry) policyResource() RegisteredResource {
	return RegisteredResource{
		Resource: &mcp.Resource{
			URI:         "policy://current",
			Name:        "policy://current",
			Title:       "Active Guardrail Policy",
			Description: "The base policy every evaluation starts from, before per-call overrides",
			MIMEType:    "application/json",
		},
		Handler: func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return r.marshalResource("policy://current", r.policy.ToMap())
		},
	}
}

// configResource returns the config://current resource
func (r *Registry) configResource() RegisteredResource {
	return RegisteredResource{
		Resource: &mcp.Resource{
			URI:         "config://current",
			Name:        "config://current",
			Title:       "Server Configuration",
			Description: "Current guardrail MCP server configuration",
			MIMEType:    "application/json",
		},
		Handler: func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			safeConfig := map[string]interface{}{
				"policy_file":        r.config.PolicyFile,
				"reports_dir":        r.config.ReportsDir,
				"fetch_timeout":      r.config.FetchTimeout.String(),
				"fetch_retries":      r.config.FetchRetries,
				"fetch_cache":        r.config.EnableFetchCache,
				"fetch_cache_ttl":    r.config.FetchCacheTTL.String(),
				"rate_limit":         r.config.RateLimit,
				"rate_limit_burst":   r.config.RateLimitBurst,
				"rate_limit_enabled": r.config.EnableRateLimit,
				"health_port":        r.config.HealthPort,
				"tracing_enabled":    r.config.EnableTracing,
				"audit_log_enabled":  r.config.EnableAuditLog,
				"log_level":          r.config.LogLevel,
				"log_format":         r.config.LogFormat,
				"server_version":     r.version,
			}
			return r.marshalResource("config://current", safeConfig)
		},
	}
}

// scenariosResource returns the scenarios://catalog resource
func (r *Registry) scenariosResource() RegisteredResource {
	return RegisteredResource{
		Resource: &mcp.Resource{
			URI:         "scenarios://catalog",
			Name:        "scenarios://catalog",
			Title:       "Demo Scenario Catalog",
			Description: "Bundled demo scenarios with variants and expected verdicts",
			MIMEType:    "application/json",
		},
		Handler: func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return r.marshalResource("scenarios://catalog", scenarios.Index())
		},
	}
}

// metricsResource returns the metrics://server resource
func (r *Registry) metricsResource() RegisteredResource {
	return RegisteredResource{
		Resource: &mcp.Resource{
			URI:         "metrics://server",
			Name:        "metrics://server",
			Title:       "Server Metrics",
			Description: "Operational metrics: evaluation counts, block rate, latency and tool usage",
			MIMEType:    "application/json",
		},
		Handler: func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			stats := r.metrics.GetStats()

			metricsData := map[string]interface{}{
				"evaluations": map[string]interface{}{
					"total":   stats.TotalEvaluations,
					"blocked": stats.BlockedEvaluations,
					"reports": stats.ReportsGenerated,
				},
				"latency": map[string]interface{}{
					"average_ms": stats.AverageLatency.Milliseconds(),
					"max_ms":     stats.MaxLatency.Milliseconds(),
					"min_ms":     stats.MinLatency.Milliseconds(),
				},
				"findings_by_kind": stats.FindingsByKind,
				"tools": map[string]interface{}{
					"usage":   stats.ToolUsage,
					"errors":  stats.ToolErrors,
					"latency": formatToolLatency(stats.ToolLatency),
				},
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			}
			return r.marshalResource("metrics://server", metricsData)
		},
	}
}

// healthResource returns the health://status resource
func (r *Registry) healthResource() RegisteredResource {
	return RegisteredResource{
		Resource: &mcp.Resource{
			URI:         "health://status",
			Name:        "health://status",
			Title:       "Health Status",
			Description: "Current health status of the guardrail MCP server",
			MIMEType:    "application/json",
		},
		Handler: func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			stats := r.metrics.GetStats()

			var status string
			var statusMessage string
			errorRate := float64(0)
			totalCalls := uint64(0)
			totalErrors := uint64(0)
			for _, count := range stats.ToolUsage {
				totalCalls += count
			}
			for _, count := range stats.ToolErrors {
				totalErrors += count
			}
			if totalCalls > 0 {
				errorRate = float64(totalErrors) / float64(totalCalls) * 100
			}

			if errorRate > 50 {
				status = "unhealthy"
				statusMessage = "High tool error rate detected"
			} else if errorRate > 10 {
				status = "degraded"
				statusMessage = "Elevated tool error rate"
			} else {
				status = "healthy"
				statusMessage = "All systems operational"
			}

			healthData := map[string]interface{}{
				"status":  status,
				"message": statusMessage,
				"details": map[string]interface{}{
					"error_rate_percent": errorRate,
					"tool_calls":         totalCalls,
					"tool_errors":        totalErrors,
					"evaluations":        stats.TotalEvaluations,
					"blocked":            stats.BlockedEvaluations,
				},
				"server": map[string]interface{}{
					"version": r.version,
				},
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			}
			return r.marshalResource("health://status", healthData)
		},
	}
}

// formatToolLatency converts time.Duration map to milliseconds for JSON
func formatToolLatency(latency map[string]time.Duration) map[string]int64 {
	result := make(map[string]int64, len(latency))
	for tool, duration := range latency {
		result[tool] = duration.Milliseconds()
	}
	return result
}

// GetResourceTemplates returns resource templates for common payloads.
// These templates help LLMs understand the structures they can submit.
func (r *Registry) GetResourceTemplates() []mcp.ResourceTemplate {
	return []mcp.ResourceTemplate{
		{
			URITemplate: "template://run/{kind}",
			Name:        "Run Payload Template",
			Description: "Template for the run payload accepted by evaluate_run. Supports kinds: 'minimal' and 'full'.",
			MIMEType:    "application/json",
		},
		{
			URITemplate: "template://policy/{type}",
			Name:        "Policy Template",
			Description: "Template for guardrail policy documents and overrides. Supports types: 'strict' and 'lenient'.",
			MIMEType:    "application/json",
		},
		{
			URITemplate: "template://claim/{extraction}",
			Name:        "Claim Template",
			Description: "Template for claims with evidence extraction. Supports extractions: 'css', 'xpath', 'regex', 'contains'.",
			MIMEType:    "application/json",
		},
	}
}

// GetTemplateHandler returns a handler for resource templates
func (r *Registry) GetTemplateHandler() mcp.ResourceHandler {
	return func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := req.Params.URI

		var content map[string]interface{}

		switch {
		case matchTemplate(uri, "template://run/"):
			content = getRunTemplate(extractTemplateName(uri, "template://run/"))
		case matchTemplate(uri, "template://policy/"):
			content = getPolicyTemplate(extractTemplateName(uri, "template://policy/"))
		case matchTemplate(uri, "template://claim/"):
			content = getClaimTemplate(extractTemplateName(uri, "template://claim/"))
		default:
			content = map[string]interface{}{
				"error": "Unknown template type",
				"available_templates": []string{
					"template://run/{kind}",
					"template://policy/{type}",
					"template://claim/{extraction}",
				},
			}
		}

		return r.marshalResource(uri, content)
	}
}

func matchTemplate(uri, prefix string) bool {
	return len(uri) > len(prefix) && uri[:len(prefix)] == prefix
}

func extractTemplateName(uri, prefix string) string {
	return uri[len(prefix):]
}

// getRunTemplate returns a run payload template for evaluate_run
func getRunTemplate(kind string) map[string]interface{} {
	if kind == "minimal" {
		return map[string]interface{}{
			"_template_info": map[string]interface{}{
				"description": "Minimal run payload for evaluate_run",
				"kind":        "minimal",
				"usage":       "Fill in the goal and output, then call evaluate_run",
			},
			"run": map[string]interface{}{
				"goal": "Find remote internships in Austin",
				"output": map[string]interface{}{
					"text": "The agent's final response text",
				},
			},
			"_related_tools": []string{"evaluate_run"},
		}
	}

	// Default to the full shape
	return map[string]interface{}{
		"_template_info": map[string]interface{}{
			"description": "Full run payload for evaluate_run",
			"kind":        "full",
			"usage":       "Every section is optional except goal and output",
		},
		"run": map[string]interface{}{
			"goal":        "Find paid software internships in Austin for summer 2026",
			"constraints": []string{"pay at least $5000/month", "company size 50+ employees"},
			"contexts": []map[string]interface{}{
				{
					"source": "https://jobs.example.com/listing",
					"text":   "Retrieved document text",
				},
			},
			"tool_calls": []map[string]interface{}{
				{
					"name": "job_scraper",
					"args": map[string]interface{}{"query": "software internship austin"},
				},
			},
			"messages": []map[string]interface{}{
				{"role": "user", "content": "Find me an internship"},
			},
			"output": map[string]interface{}{
				"text": "The agent's final response text",
				"claims": []map[string]interface{}{
					{
						"statement":     "Acme Corp pays $6000/month",
						"evidence_urls": []string{"https://jobs.example.com/listing"},
						"extraction": map[string]interface{}{
							"kind":         "contains",
							"pattern":      "$6,000",
							"must_include": "Acme",
						},
					},
				},
			},
		},
		"_related_tools": []string{"evaluate_run", "get_report"},
	}
}

// getPolicyTemplate returns a policy document template
func getPolicyTemplate(policyType string) map[string]interface{} {
	if policyType == "lenient" {
		return map[string]interface{}{
			"_template_info": map[string]interface{}{
				"description": "Lenient guardrail policy: findings are reported but only high-severity leaks block",
				"type":        "lenient",
				"usage":       "Use as policy_overrides in evaluate_run, or as a YAML policy file",
			},
			"policy": map[string]interface{}{
				"allowed_tool_names":  []string{},
				"allowed_url_domains": []string{},
				"block_on":            []string{"data_leak:high"},
				"require_claims":      false,
			},
			"_related_tools": []string{"evaluate_run"},
		}
	}

	// Default to strict
	return map[string]interface{}{
		"_template_info": map[string]interface{}{
			"description": "Strict guardrail policy: every checker kind blocks at any severity",
			"type":        "strict",
			"usage":       "Use as policy_overrides in evaluate_run, or as a YAML policy file",
		},
		"policy": map[string]interface{}{
			"allowed_tool_names":  []string{"job_scraper", "web_search"},
			"allowed_url_domains": []string{"example.com"},
			"block_on": []string{
				"tool_firewall",
				"context_poisoning",
				"jailbreak",
				"data_leak",
				"goal_drift",
				"hallucination",
			},
			"require_claims":       true,
			"min_pay_threshold":    5000,
			"min_company_size":     50,
			"treat_metro_as_minor": true,
		},
		"_related_tools": []string{"evaluate_run", "run_scenario"},
	}
}

// getClaimTemplate returns a claim template for the given extraction kind
func getClaimTemplate(extraction string) map[string]interface{} {
	base := map[string]interface{}{
		"_template_info": map[string]interface{}{
			"description": "Claim with evidence extraction for the hallucination checker",
			"extraction":  extraction,
			"usage":       "Attach to run.output.claims in evaluate_run",
		},
	}

	switch extraction {
	case "css":
		base["claim"] = map[string]interface{}{
			"statement":     "The listing offers $6000 per month",
			"evidence_urls": []string{"https://jobs.example.com/listing"},
			"extraction": map[string]interface{}{
				"kind":         "css",
				"pattern":      ".salary",
				"must_include": "$6,000",
			},
		}
	case "xpath":
		base["claim"] = map[string]interface{}{
			"statement":     "The company has 120 employees",
			"evidence_urls": []string{"https://jobs.example.com/about"},
			"extraction": map[string]interface{}{
				"kind":         "xpath",
				"pattern":      "//div[@id='company-size']",
				"must_include": "120",
			},
		}
	case "regex":
		base["claim"] = map[string]interface{}{
			"statement":     "Applications close in May 2026",
			"evidence_urls": []string{"https://jobs.example.com/listing"},
			"extraction": map[string]interface{}{
				"kind":         "regex",
				"pattern":      `closes?\s+in\s+May\s+2026`,
				"must_include": "May 2026",
			},
		}
	default:
		base["claim"] = map[string]interface{}{
			"statement":     "The role is based in Austin",
			"evidence_urls": []string{"https://jobs.example.com/listing"},
			"extraction": map[string]interface{}{
				"kind":    "contains",
				"pattern": "Austin",
			},
		}
	}

	base["_related_tools"] = []string{"evaluate_run"}
	return base
}
