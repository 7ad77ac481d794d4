// Package tracing mints the identifiers that tie one evaluation together:
// the MCP tool call, the audit entry and the archived report all share a
// trace ID. The health sidecar mirrors the IDs onto /reports responses so a
// fetched report can be correlated with the evaluation that produced it.
// OpenTelemetry spans live in otel.go; this file is the lightweight ID layer
// that needs no exporter.
package tracing

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// TraceIDKey is the context key for trace ID
	TraceIDKey contextKey = "trace_id"
	// SpanIDKey is the context key for span ID
	SpanIDKey contextKey = "span_id"
	// ParentSpanIDKey is the context key for parent span ID
	ParentSpanIDKey contextKey = "parent_span_id"
)

// Response headers set by the health sidecar on report lookups.
const (
	// TraceIDHeader carries the trace ID
	TraceIDHeader = "X-Trace-ID"
	// SpanIDHeader carries the span ID
	SpanIDHeader = "X-Span-ID"
	// ParentSpanIDHeader carries the parent span ID when one exists
	ParentSpanIDHeader = "X-Parent-Span-ID"
	// RequestIDHeader is the conventional request ID header
	RequestIDHeader = "X-Request-ID"
)

// TraceInfo contains all trace-related identifiers
type TraceInfo struct {
	TraceID      string `json:"trace_id"`
	SpanID       string `json:"span_id"`
	ParentSpanID string `json:"parent_span_id,omitempty"`
}

// idPool reuses the scratch buffer for trace ID generation; report IDs are
// minted on every evaluation, so this is on the hot path.
var idPool = sync.Pool{
	New: func() interface{} {
		return make([]byte, 16)
	},
}

// GenerateID generates a random 32-character hex ID (128 bits). Report IDs
// use the same generator, so the format is load-bearing for the report store.
func GenerateID() string {
	b := idPool.Get().([]byte)
	defer idPool.Put(b)

	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the platform is broken; return the zero
		// ID rather than panicking mid-evaluation
		return "00000000000000000000000000000000"
	}
	return hex.EncodeToString(b)
}

// GenerateShortID generates a random 16-character hex ID (64 bits) for spans
func GenerateShortID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "0000000000000000"
	}
	return hex.EncodeToString(b)
}

// NewTraceInfo creates a new trace with generated IDs
func NewTraceInfo() *TraceInfo {
	return &TraceInfo{
		TraceID: GenerateID(),
		SpanID:  GenerateShortID(),
	}
}

// NewSpan creates a child span under the same trace. The server opens one
// per tool call so audit entries carry per-call span IDs.
func (t *TraceInfo) NewSpan() *TraceInfo {
	return &TraceInfo{
		TraceID:      t.TraceID,
		SpanID:       GenerateShortID(),
		ParentSpanID: t.SpanID,
	}
}

// WithTraceInfo adds trace information to a context
func WithTraceInfo(ctx context.Context, info *TraceInfo) context.Context {
	ctx = context.WithValue(ctx, TraceIDKey, info.TraceID)
	ctx = context.WithValue(ctx, SpanIDKey, info.SpanID)
	if info.ParentSpanID != "" {
		ctx = context.WithValue(ctx, ParentSpanIDKey, info.ParentSpanID)
	}
	return ctx
}

// FromContext extracts trace information from a context. Missing values stay
// empty; the audit log only records what is present.
func FromContext(ctx context.Context) *TraceInfo {
	info := &TraceInfo{}

	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		info.TraceID = traceID
	}
	if spanID, ok := ctx.Value(SpanIDKey).(string); ok {
		info.SpanID = spanID
	}
	if parentSpanID, ok := ctx.Value(ParentSpanIDKey).(string); ok {
		info.ParentSpanID = parentSpanID
	}

	return info
}

// EnsureTraceContext returns ctx with trace information, minting a fresh
// trace when none is present.
func EnsureTraceContext(ctx context.Context) context.Context {
	if FromContext(ctx).TraceID == "" {
		return WithTraceInfo(ctx, NewTraceInfo())
	}
	return ctx
}

// Headers returns the trace info as response headers. The request ID mirrors
// the trace ID so either can be quoted when reporting a problem.
func (t *TraceInfo) Headers() map[string]string {
	headers := map[string]string{
		TraceIDHeader:   t.TraceID,
		SpanIDHeader:    t.SpanID,
		RequestIDHeader: t.TraceID,
	}
	if t.ParentSpanID != "" {
		headers[ParentSpanIDHeader] = t.ParentSpanID
	}
	return headers
}
