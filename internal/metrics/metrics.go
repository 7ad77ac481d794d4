// Package metrics provides metrics collection and reporting for the
// guardrail MCP server.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Prometheus metric labels
const (
	labelTool     = "tool"
	labelKind     = "kind"
	labelSeverity = "severity"
)

// Metrics tracks operational metrics with both internal counters and Prometheus metrics
type Metrics struct {
	// Evaluation counters (internal atomics for fast access)
	totalEvaluations   atomic.Uint64
	blockedEvaluations atomic.Uint64
	reportsGenerated   atomic.Uint64

	// Evaluation latency tracking
	totalLatency atomic.Int64 // microseconds
	latencyCount atomic.Uint64
	maxLatency   atomic.Int64
	minLatency   atomic.Int64

	// Finding counts by kind
	findingsMu     sync.RWMutex
	findingsByKind map[string]uint64

	// Tool usage tracking
	toolsMu     sync.RWMutex
	toolUsage   map[string]uint64
	toolErrors  map[string]uint64
	toolLatency map[string]int64 // microseconds

	logger *zap.Logger

	// Prometheus metrics
	promEvaluationsTotal   prometheus.Counter
	promEvaluationsBlocked prometheus.Counter
	promReportsGenerated   prometheus.Counter
	promEvaluationLatency  prometheus.Histogram
	promEvaluationScore    prometheus.Histogram
	promFindings           *prometheus.CounterVec
	promToolCalls          *prometheus.CounterVec
	promToolErrors         *prometheus.CounterVec
	promToolLatency        *prometheus.HistogramVec
}

// New creates a new metrics tracker with Prometheus integration
func New(logger *zap.Logger) *Metrics {
	m := &Metrics{
		findingsByKind: make(map[string]uint64),
		toolUsage:      make(map[string]uint64),
		toolErrors:     make(map[string]uint64),
		toolLatency:    make(map[string]int64),
		logger:         logger,

		// promauto auto-registers with the default registry
		promEvaluationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "guardrail",
			Name:      "evaluations_total",
			Help:      "Total number of guardrail evaluations performed",
		}),
		promEvaluationsBlocked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "guardrail",
			Name:      "evaluations_blocked_total",
			Help:      "Total number of evaluations that returned a blocked verdict",
		}),
		promReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "guardrail",
			Name:      "reports_generated_total",
			Help:      "Total number of HTML reports persisted to the report store",
		}),
		promEvaluationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "guardrail",
			Name:      "evaluation_latency_seconds",
			Help:      "End-to-end evaluation latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		}),
		promEvaluationScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "guardrail",
			Name:      "evaluation_score",
			Help:      "Distribution of verdict risk scores",
			Buckets:   prometheus.LinearBuckets(0, 0.5, 11), // 0 to 5.0
		}),
		promFindings: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guardrail",
			Name:      "findings_total",
			Help:      "Findings produced by checkers, labeled by kind and severity",
		}, []string{labelKind, labelSeverity}),

		// Tool-specific metrics - tracks every MCP tool call
		promToolCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guardrail",
			Name:      "tool_calls_total",
			Help:      "Total number of tool calls, labeled by tool name (e.g., evaluate_run, run_scenario)",
		}, []string{labelTool}),
		promToolErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guardrail",
			Name:      "tool_errors_total",
			Help:      "Total number of tool errors, labeled by tool name",
		}, []string{labelTool}),
		promToolLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "guardrail",
			Name:      "tool_latency_seconds",
			Help:      "Tool execution latency in seconds, labeled by tool name",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		}, []string{labelTool}),
	}

	// Initialize min latency to max value
	m.minLatency.Store(int64(time.Hour))

	return m
}

// RecordEvaluation records one completed evaluation: its outcome, risk
// score, per-kind finding counts and latency.
func (m *Metrics) RecordEvaluation(blocked bool, score float64, findingKinds map[string]map[string]int, latency time.Duration) {
	m.totalEvaluations.Add(1)
	m.promEvaluationsTotal.Inc()
	m.promEvaluationLatency.Observe(latency.Seconds())
	m.promEvaluationScore.Observe(score)

	if blocked {
		m.blockedEvaluations.Add(1)
		m.promEvaluationsBlocked.Inc()
	}

	m.findingsMu.Lock()
	for kind, bySeverity := range findingKinds {
		for severity, count := range bySeverity {
			m.findingsByKind[kind] += uint64(count)
			m.promFindings.WithLabelValues(kind, severity).Add(float64(count))
		}
	}
	m.findingsMu.Unlock()

	m.recordLatency(latency)
}

// RecordReport records one persisted report.
func (m *Metrics) RecordReport() {
	m.reportsGenerated.Add(1)
	m.promReportsGenerated.Inc()
}

// RecordToolExecution records tool usage (both internal counters and Prometheus)
func (m *Metrics) RecordToolExecution(toolName string, success bool, latency time.Duration) {
	m.toolsMu.Lock()
	m.toolUsage[toolName]++
	if !success {
		m.toolErrors[toolName]++
	}

	// Rolling average in float64 to avoid integer overflow
	if latency > 0 && m.toolUsage[toolName] > 0 {
		currentLatency := m.toolLatency[toolName]
		count := float64(m.toolUsage[toolName])
		avgLatency := (float64(currentLatency)*(count-1) + float64(latency.Microseconds())) / count
		m.toolLatency[toolName] = int64(avgLatency)
	}
	m.toolsMu.Unlock()

	m.promToolCalls.WithLabelValues(toolName).Inc()
	m.promToolLatency.WithLabelValues(toolName).Observe(latency.Seconds())
	if !success {
		m.promToolErrors.WithLabelValues(toolName).Inc()
	}
}

func (m *Metrics) recordLatency(latency time.Duration) {
	latencyUs := latency.Microseconds()

	m.totalLatency.Add(latencyUs)
	m.latencyCount.Add(1)

	for {
		currentMax := m.maxLatency.Load()
		if latencyUs <= currentMax {
			break
		}
		if m.maxLatency.CompareAndSwap(currentMax, latencyUs) {
			break
		}
	}

	for {
		currentMin := m.minLatency.Load()
		if latencyUs >= currentMin {
			break
		}
		if m.minLatency.CompareAndSwap(currentMin, latencyUs) {
			break
		}
	}
}

// GetStats returns current statistics
func (m *Metrics) GetStats() Stats {
	m.findingsMu.RLock()
	findingsByKind := make(map[string]uint64, len(m.findingsByKind))
	for k, v := range m.findingsByKind {
		findingsByKind[k] = v
	}
	m.findingsMu.RUnlock()

	m.toolsMu.RLock()
	toolUsage := make(map[string]uint64, len(m.toolUsage))
	toolErrors := make(map[string]uint64, len(m.toolErrors))
	toolLatency := make(map[string]time.Duration, len(m.toolLatency))
	for k, v := range m.toolUsage {
		toolUsage[k] = v
	}
	for k, v := range m.toolErrors {
		toolErrors[k] = v
	}
	for k, v := range m.toolLatency {
		toolLatency[k] = time.Duration(v) * time.Microsecond
	}
	m.toolsMu.RUnlock()

	latencyCount := m.latencyCount.Load()
	var avgLatency time.Duration
	if latencyCount > 0 {
		avgLatencyMicros := float64(m.totalLatency.Load()) / float64(latencyCount)
		avgLatency = time.Duration(avgLatencyMicros) * time.Microsecond
	}

	return Stats{
		TotalEvaluations:   m.totalEvaluations.Load(),
		BlockedEvaluations: m.blockedEvaluations.Load(),
		ReportsGenerated:   m.reportsGenerated.Load(),
		AverageLatency:     avgLatency,
		MaxLatency:         time.Duration(m.maxLatency.Load()) * time.Microsecond,
		MinLatency:         time.Duration(m.minLatency.Load()) * time.Microsecond,
		FindingsByKind:     findingsByKind,
		ToolUsage:          toolUsage,
		ToolErrors:         toolErrors,
		ToolLatency:        toolLatency,
	}
}

// LogStats logs current statistics
func (m *Metrics) LogStats() {
	stats := m.GetStats()

	var blockRate float64
	if stats.TotalEvaluations > 0 {
		blockRate = float64(stats.BlockedEvaluations) / float64(stats.TotalEvaluations) * 100
	}

	m.logger.Info("Operational metrics",
		zap.Uint64("total_evaluations", stats.TotalEvaluations),
		zap.Uint64("blocked_evaluations", stats.BlockedEvaluations),
		zap.Float64("block_rate_pct", blockRate),
		zap.Uint64("reports_generated", stats.ReportsGenerated),
		zap.Duration("avg_latency", stats.AverageLatency),
		zap.Duration("max_latency", stats.MaxLatency),
		zap.Duration("min_latency", stats.MinLatency),
		zap.Any("findings_by_kind", stats.FindingsByKind),
		zap.Any("tool_usage", stats.ToolUsage),
	)
}

// Stats represents current metrics
type Stats struct {
	TotalEvaluations   uint64
	BlockedEvaluations uint64
	ReportsGenerated   uint64
	AverageLatency     time.Duration
	MaxLatency         time.Duration
	MinLatency         time.Duration
	FindingsByKind     map[string]uint64
	ToolUsage          map[string]uint64
	ToolErrors         map[string]uint64
	ToolLatency        map[string]time.Duration
}
