// Package main implements the guardrail MCP (Model Context Protocol) server.
//
// This server exposes a deterministic guardrail evaluation engine for
// autonomous agent runs: tool firewalling, context-poisoning and jailbreak
// detection, secret/PII leak scanning, goal-drift analysis and claim
// verification against evidence URLs.
//
// The server communicates using the MCP protocol over stdio, making it
// compatible with Claude Desktop and other MCP clients.
//
// Configuration is provided through environment variables:
//   - GUARD_POLICY_FILE: (Optional) YAML guardrail policy document
//   - GUARD_REPORTS_DIR: (Optional) Directory for rendered HTML reports
//   - LOG_LEVEL: (Optional) Log verbosity (debug, info, warn, error)
//   - ENVIRONMENT: (Optional) Set to "production" for production logging
//
// Example usage:
//
//	export GUARD_POLICY_FILE="policy.yaml"
//	./guardrail-mcp-server
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sentrykit/guardrail-mcp-server/internal/config"
	"github.com/sentrykit/guardrail-mcp-server/internal/server"
	"github.com/sentrykit/guardrail-mcp-server/internal/tracing"
)

// Build information - set at build time via ldflags
var (
	version = "dev"     // e.g., "v0.1.0" or "dev"
	commit  = "unknown" // Git commit SHA
	builtBy = "manual"  // "goreleaser" or "manual"
)

// main is the entry point for the guardrail MCP server.
// It initializes the server, loads configuration, and handles graceful shutdown.
func main() {
	// Load .env file if it exists (optional, for development)
	_ = godotenv.Load()

	logger, err := initLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync() // Ignore error on cleanup
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	logger.Info("Starting Guardrail MCP Server",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("built_by", builtBy),
		zap.String("reports_dir", cfg.ReportsDir),
	)

	otelShutdown, err := tracing.InitOTel(tracing.OTelConfig{
		ServiceName:    "guardrail-mcp-server",
		ServiceVersion: version,
		Environment:    os.Getenv("ENVIRONMENT"),
		Enabled:        cfg.EnableTracing,
	})
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			logger.Error("Failed to shutdown tracing", zap.Error(err))
		}
	}()

	mcpServer, err := server.New(cfg, logger, version)
	if err != nil {
		logger.Fatal("Failed to create MCP server", zap.Error(err))
	}

	// Setup graceful shutdown with timeout
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- mcpServer.Start(ctx)
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error", zap.Error(err))
		}
		cancel()
		return
	}

	logger.Info("Initiating graceful shutdown", zap.Duration("timeout", cfg.ShutdownTimeout))
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	select {
	case <-serverDone:
		logger.Info("Server shutdown complete")
	case <-shutdownCtx.Done():
		logger.Warn("Shutdown timeout exceeded, forcing exit",
			zap.Duration("timeout", cfg.ShutdownTimeout))
	}

	// Allow a brief moment for final cleanup
	time.Sleep(100 * time.Millisecond)
}

// initLogger initializes and returns a zap logger.
// It creates a production logger if ENVIRONMENT=production, otherwise returns
// a development logger with more verbose output.
func initLogger() (*zap.Logger, error) {
	env := os.Getenv("ENVIRONMENT")
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
