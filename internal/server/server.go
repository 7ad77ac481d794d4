// Package server provides the MCP server implementation for the guardrail
// evaluation engine.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sentrykit/guardrail-mcp-server/internal/audit"
	"github.com/sentrykit/guardrail-mcp-server/internal/cache"
	"github.com/sentrykit/guardrail-mcp-server/internal/config"
	"github.com/sentrykit/guardrail-mcp-server/internal/fetch"
	"github.com/sentrykit/guardrail-mcp-server/internal/guard"
	"github.com/sentrykit/guardrail-mcp-server/internal/health"
	"github.com/sentrykit/guardrail-mcp-server/internal/metrics"
	"github.com/sentrykit/guardrail-mcp-server/internal/prompts"
	"github.com/sentrykit/guardrail-mcp-server/internal/reportstore"
	"github.com/sentrykit/guardrail-mcp-server/internal/resources"
	"github.com/sentrykit/guardrail-mcp-server/internal/tools"
	"github.com/sentrykit/guardrail-mcp-server/internal/tracing"
)

// Server represents the MCP server
type Server struct {
	mcpServer    *mcp.Server
	config       *config.Config
	policy       *guard.Policy
	logger       *zap.Logger
	metrics      *metrics.Metrics
	auditLogger  *audit.Logger
	store        *reportstore.Store
	version      string
	healthServer *health.Server
	toolDeps     *tools.Deps
}

// New creates a new MCP server instance.
func New(cfg *config.Config, logger *zap.Logger, version string) (*Server, error) {
	policy, err := cfg.LoadPolicy()
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}

	template, err := cfg.LoadReportTemplate()
	if err != nil {
		return nil, fmt.Errorf("failed to load report template: %w", err)
	}

	store, err := reportstore.New(cfg.ReportsDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create report store: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.EnableRateLimit {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)
	}
	var docCache *cache.Cache
	if cfg.EnableFetchCache {
		docCache = cache.New(cfg.FetchCacheSize, cfg.FetchCacheTTL)
	}
	fetcher := fetch.New(fetch.Options{
		Timeout: cfg.FetchTimeout,
		Retries: cfg.FetchRetries,
		Limiter: limiter,
		Cache:   docCache,
	}, logger)

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "Guardrail MCP Server",
		Version: version,
	}, &mcp.ServerOptions{
		HasTools:     true,
		HasPrompts:   true,
		HasResources: true,
	})

	metricsTracker := metrics.New(logger)
	auditLogger := audit.NewLogger(logger, cfg.EnableAuditLog)

	s := &Server{
		mcpServer:   mcpServer,
		config:      cfg,
		policy:      policy,
		logger:      logger,
		metrics:     metricsTracker,
		auditLogger: auditLogger,
		store:       store,
		version:     version,
		toolDeps: &tools.Deps{
			Policy:         policy,
			Fetcher:        fetcher.Text,
			ReportTemplate: template,
			Store:          store,
			Metrics:        metricsTracker,
			Audit:          auditLogger,
			Logger:         logger,
		},
	}

	// Create health server if port is configured (port > 0)
	if cfg.HealthPort > 0 {
		healthChecker := health.New(store, policy, logger)
		s.healthServer = health.NewServer(healthChecker, store, logger, cfg.HealthPort, cfg.HealthBindAddr, cfg.MetricsEndpoint)
	}

	s.registerTools()
	s.registerPrompts()
	s.registerResources()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.registerTool(tools.NewEvaluateRunTool(s.toolDeps))
	s.registerTool(tools.NewListScenariosTool(s.toolDeps))
	s.registerTool(tools.NewRunScenarioTool(s.toolDeps))
	s.registerTool(tools.NewGetReportTool(s.toolDeps))
	s.registerTool(tools.NewGuardStatsTool(s.toolDeps))

	s.logger.Info("Registered all MCP tools")
}

// registerTool is a helper to register a tool with metrics tracking.
// It accepts any type that implements the tools.Tool interface.
func (s *Server) registerTool(t tools.Tool) {
	toolName := t.Name()

	mcpTool := &mcp.Tool{
		Name:        toolName,
		Description: t.Description(),
		InputSchema: t.InputSchema(),
		Annotations: t.Annotations(),
	}

	s.mcpServer.AddTool(mcpTool, s.toolHandler(t))
	s.logger.Debug("Registered tool", zap.String("tool", mcpTool.Name))
}

// toolHandler wraps a tool's Execute with tracing, metrics and panic
// recovery. A panicking tool surfaces as a tool error result; the server
// keeps serving.
func (s *Server) toolHandler(t tools.Tool) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	toolName := t.Name()

	return func(ctx context.Context, request *mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		start := time.Now()

		// Every tool call gets its own span under the ambient trace for
		// audit correlation
		ctx = tracing.EnsureTraceContext(ctx)
		ctx = tracing.WithTraceInfo(ctx, tracing.FromContext(ctx).NewSpan())
		ctx, span := tracing.ToolSpan(ctx, toolName)
		defer span.End()

		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Tool execution panicked",
					zap.String("tool", toolName),
					zap.Any("panic", r),
				)
				s.metrics.RecordToolExecution(toolName, false, time.Since(start))
				result = tools.NewToolResultError(fmt.Sprintf("Internal error executing tool %s", toolName))
				err = nil
			}
		}()

		var args map[string]interface{}
		if len(request.Params.Arguments) > 0 {
			if err := json.Unmarshal(request.Params.Arguments, &args); err != nil {
				s.metrics.RecordToolExecution(toolName, false, time.Since(start))
				return nil, fmt.Errorf("failed to unmarshal arguments: %w", err)
			}
		}

		result, err = t.Execute(ctx, args)
		success := err == nil && (result == nil || !result.IsError)
		s.metrics.RecordToolExecution(toolName, success, time.Since(start))
		tracing.RecordError(span, err)

		return result, err
	}
}

// registerPrompts registers all guided workflow prompts
func (s *Server) registerPrompts() {
	registry := prompts.NewRegistry(s.logger)

	for _, p := range registry.GetPrompts() {
		s.mcpServer.AddPrompt(p.Prompt, p.Handler)
		s.logger.Debug("Registered prompt", zap.String("prompt", p.Prompt.Name))
	}

	s.logger.Info("Registered all MCP prompts", zap.Int("count", len(registry.GetPrompts())))
}

// registerResources registers all read-only resources and templates
func (s *Server) registerResources() {
	registry := resources.NewRegistry(s.config, s.policy, s.metrics, s.logger, s.version)

	for _, r := range registry.GetResources() {
		s.mcpServer.AddResource(r.Resource, r.Handler)
		s.logger.Debug("Registered resource", zap.String("uri", r.Resource.URI))
	}

	templateHandler := registry.GetTemplateHandler()
	for _, t := range registry.GetResourceTemplates() {
		s.mcpServer.AddResourceTemplate(&t, templateHandler)
		s.logger.Debug("Registered resource template", zap.String("uri_template", t.URITemplate))
	}

	s.logger.Info("Registered all MCP resources",
		zap.Int("static_count", len(registry.GetResources())),
		zap.Int("template_count", len(registry.GetResourceTemplates())),
	)
}

// Start starts the MCP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting MCP server")

	// Start health HTTP server in background if configured
	if s.healthServer != nil {
		go func() {
			if err := s.healthServer.Start(); err != nil {
				s.logger.Error("Health server error", zap.Error(err))
			}
		}()
		s.healthServer.SetReady(true)
	}

	defer func() {
		// Log final metrics on shutdown
		s.metrics.LogStats()

		if s.healthServer != nil {
			s.healthServer.SetReady(false)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.healthServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("Failed to shutdown health server", zap.Error(err))
			}
		}
	}()

	// Start serving using stdio transport
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// GetMetrics returns the server's metrics tracker for external access
func (s *Server) GetMetrics() *metrics.Metrics {
	return s.metrics
}
