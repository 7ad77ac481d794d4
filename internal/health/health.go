package health

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sentrykit/guardrail-mcp-server/internal/guard"
	"github.com/sentrykit/guardrail-mcp-server/internal/reportstore"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check represents a health check result
type Check struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
}

// Checker performs health checks
type Checker struct {
	store  *reportstore.Store
	policy *guard.Policy
	logger *zap.Logger
}

// New creates a new health checker
func New(store *reportstore.Store, policy *guard.Policy, logger *zap.Logger) *Checker {
	return &Checker{
		store:  store,
		policy: policy,
		logger: logger,
	}
}

// CheckAll performs all health checks
func (c *Checker) CheckAll(ctx context.Context) (Status, []Check) {
	checks := []Check{
		c.checkPolicy(),
		c.checkReportStore(),
	}

	overallStatus := StatusHealthy
	for _, check := range checks {
		if check.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
			break
		} else if check.Status == StatusDegraded && overallStatus == StatusHealthy {
			overallStatus = StatusDegraded
		}
	}

	return overallStatus, checks
}

// checkPolicy verifies a policy is loaded
func (c *Checker) checkPolicy() Check {
	start := time.Now()
	check := Check{
		Name:      "policy",
		Timestamp: start,
	}
	check.Duration = time.Since(start)

	if c.policy == nil {
		check.Status = StatusUnhealthy
		check.Message = "No policy loaded"
		c.logger.Error("Health check failed: policy")
		return check
	}

	check.Status = StatusHealthy
	check.Message = fmt.Sprintf("Policy loaded with %d block keys", len(c.policy.BlockOn))
	return check
}

// checkReportStore verifies the report archive is writable
func (c *Checker) checkReportStore() Check {
	start := time.Now()
	check := Check{
		Name:      "report_store",
		Timestamp: start,
	}

	err := c.store.Ping()
	check.Duration = time.Since(start)

	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = fmt.Sprintf("Reports directory not writable: %v", err)
		c.logger.Error("Health check failed: report store",
			zap.Error(err),
			zap.Duration("duration", check.Duration),
		)
	} else {
		check.Status = StatusHealthy
		check.Message = "Reports directory writable"
		c.logger.Debug("Health check passed: report store",
			zap.Duration("duration", check.Duration),
		)
	}

	return check
}
