// Package config provides configuration management for the guardrail MCP
// server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sentrykit/guardrail-mcp-server/internal/guard"
)

// Config holds all configuration for the MCP server
type Config struct {
	// Guardrail policy
	PolicyFile string `json:"policy_file,omitempty"` // YAML policy document, empty selects the default policy

	// Reporting
	ReportsDir     string `json:"reports_dir"`               // directory for rendered HTML reports
	ReportTemplate string `json:"report_template,omitempty"` // optional template file, empty selects the built-in

	// Evidence Fetching
	FetchTimeout time.Duration `json:"fetch_timeout"` // per-attempt timeout for evidence fetches
	FetchRetries int           `json:"fetch_retries"` // additional attempts after the first

	// Evidence cache
	EnableFetchCache bool          `json:"enable_fetch_cache"` // cache fetched documents by URL (default: true)
	FetchCacheSize   int           `json:"fetch_cache_size"`   // max cached documents
	FetchCacheTTL    time.Duration `json:"fetch_cache_ttl"`    // how long a cached document stays valid

	// Rate Limiting (outbound evidence fetches)
	RateLimit       int  `json:"rate_limit"`       // requests per second
	RateLimitBurst  int  `json:"rate_limit_burst"` // burst size
	EnableRateLimit bool `json:"enable_rate_limit"`

	// Health / metrics sidecar
	HealthPort     int    `json:"health_port"`
	HealthBindAddr string `json:"health_bind_addr"`

	// Observability
	EnableTracing   bool `json:"enable_tracing"`   // Enable distributed tracing (default: true)
	EnableAuditLog  bool `json:"enable_audit_log"` // Enable audit logging (default: true)
	MetricsEndpoint bool `json:"metrics_endpoint"` // Enable Prometheus metrics endpoint (default: false)

	// Shutdown
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`

	// Logging
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"` // json or console
}

// Load configuration from environment variables and config file
func Load() (*Config, error) {
	cfg := &Config{
		// Defaults
		ReportsDir:       "generated_reports",
		FetchTimeout:     5 * time.Second,
		FetchRetries:     2,
		EnableFetchCache: true,
		FetchCacheSize:   100,
		FetchCacheTTL:    5 * time.Minute,
		RateLimit:        10,
		RateLimitBurst:   5,
		EnableRateLimit:  false,
		HealthPort:       8080,
		HealthBindAddr:   "127.0.0.1",
		EnableTracing:    true,
		EnableAuditLog:   true,
		MetricsEndpoint:  false,
		ShutdownTimeout:  10 * time.Second,
		LogLevel:         "info",
		LogFormat:        "json",
	}

	// Try to load from config file if specified
	if configFile := os.Getenv("CONFIG_FILE"); configFile != "" {
		if err := loadFromFile(cfg, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with environment variables (these take precedence)
	loadFromEnv(cfg)

	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	cleanPath := filepath.Clean(path)

	// Prevent path traversal by checking for ".." components
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("invalid file path: path traversal detected")
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 -- path is validated above
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return json.Unmarshal(data, cfg)
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("GUARD_POLICY_FILE"); v != "" {
		cfg.PolicyFile = v
	}
	if v := os.Getenv("GUARD_REPORTS_DIR"); v != "" {
		cfg.ReportsDir = v
	}
	if v := os.Getenv("GUARD_REPORT_TEMPLATE"); v != "" {
		cfg.ReportTemplate = v
	}
	if v := os.Getenv("GUARD_FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.FetchTimeout = d
		}
	}
	if v := os.Getenv("GUARD_FETCH_RETRIES"); v != "" {
		var retries int
		if _, err := fmt.Sscanf(v, "%d", &retries); err == nil {
			cfg.FetchRetries = retries
		}
	}
	if v := os.Getenv("GUARD_ENABLE_FETCH_CACHE"); v != "" {
		cfg.EnableFetchCache = v == "true" || v == "1"
	}
	if v := os.Getenv("GUARD_FETCH_CACHE_SIZE"); v != "" {
		var size int
		if _, err := fmt.Sscanf(v, "%d", &size); err == nil {
			cfg.FetchCacheSize = size
		}
	}
	if v := os.Getenv("GUARD_FETCH_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.FetchCacheTTL = d
		}
	}
	if v := os.Getenv("GUARD_RATE_LIMIT"); v != "" {
		var limit int
		if _, err := fmt.Sscanf(v, "%d", &limit); err == nil {
			cfg.RateLimit = limit
		}
	}
	if v := os.Getenv("GUARD_RATE_LIMIT_BURST"); v != "" {
		var burst int
		if _, err := fmt.Sscanf(v, "%d", &burst); err == nil {
			cfg.RateLimitBurst = burst
		}
	}
	if v := os.Getenv("GUARD_ENABLE_RATE_LIMIT"); v != "" {
		cfg.EnableRateLimit = v == "true" || v == "1"
	}
	if v := os.Getenv("GUARD_HEALTH_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.HealthPort = port
		}
	}
	if v := os.Getenv("GUARD_HEALTH_BIND_ADDR"); v != "" {
		cfg.HealthBindAddr = v
	}
	if v := os.Getenv("GUARD_ENABLE_TRACING"); v != "" {
		cfg.EnableTracing = v == "true" || v == "1"
	}
	if v := os.Getenv("GUARD_ENABLE_AUDIT_LOG"); v != "" {
		cfg.EnableAuditLog = v == "true" || v == "1"
	}
	if v := os.Getenv("GUARD_METRICS_ENDPOINT"); v != "" {
		cfg.MetricsEndpoint = v == "true" || v == "1"
	}
	if v := os.Getenv("GUARD_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ShutdownTimeout = d
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ReportsDir == "" {
		return errors.New("reports_dir is required")
	}
	if c.FetchTimeout <= 0 {
		return errors.New("fetch_timeout must be positive")
	}
	if c.FetchRetries < 0 {
		return errors.New("fetch_retries must be non-negative")
	}
	if c.EnableFetchCache && c.FetchCacheTTL <= 0 {
		return errors.New("fetch_cache_ttl must be positive when the fetch cache is enabled")
	}
	if c.RateLimit <= 0 && c.EnableRateLimit {
		return errors.New("rate_limit must be positive when rate limiting is enabled")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("invalid health port: %d", c.HealthPort)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}

// LoadPolicy reads the YAML policy document named by PolicyFile. An empty
// PolicyFile selects the default policy.
func (c *Config) LoadPolicy() (*guard.Policy, error) {
	if c.PolicyFile == "" {
		return guard.NewPolicy(), nil
	}

	cleanPath := filepath.Clean(c.PolicyFile)
	if strings.Contains(cleanPath, "..") {
		return nil, fmt.Errorf("invalid policy file path: path traversal detected")
	}
	data, err := os.ReadFile(cleanPath) // #nosec G304 -- path is validated above
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}
	return guard.PolicyFromMap(raw), nil
}

// LoadReportTemplate reads the report template file, or returns "" so the
// built-in template is used.
func (c *Config) LoadReportTemplate() (string, error) {
	if c.ReportTemplate == "" {
		return "", nil
	}
	data, err := os.ReadFile(filepath.Clean(c.ReportTemplate))
	if err != nil {
		return "", fmt.Errorf("failed to read report template: %w", err)
	}
	return string(data), nil
}
