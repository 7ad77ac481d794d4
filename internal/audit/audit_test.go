package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestLogger(enabled bool) *Logger {
	return NewLogger(zap.NewNop(), enabled)
}

func TestLogDisabled(t *testing.T) {
	logger := newTestLogger(false)

	logger.Log(context.Background(), Entry{Tool: "evaluate_run", Operation: "evaluate"})

	if logger.IsEnabled() {
		t.Error("IsEnabled() should be false")
	}
	if got := logger.GetStats().TotalEntries; got != 0 {
		t.Errorf("disabled logger stored %d entries", got)
	}
}

func TestLogEvaluation(t *testing.T) {
	logger := newTestLogger(true)

	logger.LogEvaluation(context.Background(), "evaluate_run", true, 2.5, 3, 40*time.Millisecond)

	entries := logger.GetRecentEntries(10)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Tool != "evaluate_run" || entry.Operation != "evaluate" {
		t.Errorf("entry = %+v", entry)
	}
	if !entry.Success {
		t.Error("evaluation entries record success")
	}
	if !entry.Blocked || entry.Score != 2.5 || entry.Findings != 3 {
		t.Errorf("verdict summary = blocked %v score %v findings %d",
			entry.Blocked, entry.Score, entry.Findings)
	}
	if entry.Timestamp.IsZero() {
		t.Error("timestamp should be filled in")
	}
}

func TestLogToolExecution(t *testing.T) {
	logger := newTestLogger(true)

	logger.LogToolExecution(context.Background(), "get_report", "read", "report", "abc123",
		false, 5*time.Millisecond, errors.New("report missing"))

	entries := logger.GetEntriesByTool("get_report", 10)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Resource != "report" || entry.ResourceID != "abc123" {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Success {
		t.Error("failed execution recorded as success")
	}
	if entry.ErrorMsg != "report missing" {
		t.Errorf("ErrorMsg = %q", entry.ErrorMsg)
	}
}

func TestGetRecentEntriesNewestFirst(t *testing.T) {
	logger := newTestLogger(true)

	for _, tool := range []string{"first", "second", "third"} {
		logger.Log(context.Background(), Entry{Tool: tool, Operation: "evaluate"})
	}

	entries := logger.GetRecentEntries(2)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Tool != "third" || entries[1].Tool != "second" {
		t.Errorf("order = %q, %q; want newest first", entries[0].Tool, entries[1].Tool)
	}

	all := logger.GetRecentEntries(0)
	if len(all) != 3 {
		t.Errorf("limit 0 should return everything, got %d", len(all))
	}
}

func TestGetEntriesByTool(t *testing.T) {
	logger := newTestLogger(true)

	logger.Log(context.Background(), Entry{Tool: "evaluate_run"})
	logger.Log(context.Background(), Entry{Tool: "get_report"})
	logger.Log(context.Background(), Entry{Tool: "evaluate_run"})

	entries := logger.GetEntriesByTool("evaluate_run", 10)
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
	if entries := logger.GetEntriesByTool("evaluate_run", 1); len(entries) != 1 {
		t.Errorf("limit should apply, got %d", len(entries))
	}
}

func TestGetStats(t *testing.T) {
	logger := newTestLogger(true)

	logger.LogEvaluation(context.Background(), "evaluate_run", true, 1.0, 1, 10*time.Millisecond)
	logger.LogEvaluation(context.Background(), "evaluate_run", false, 0, 0, 30*time.Millisecond)
	logger.Log(context.Background(), Entry{
		Tool:      "get_report",
		Operation: "read",
		Success:   false,
		ErrorCode: "RESOURCE_NOT_FOUND",
		Duration:  20 * time.Millisecond,
	})

	stats := logger.GetStats()
	if stats.TotalEntries != 3 {
		t.Errorf("TotalEntries = %d", stats.TotalEntries)
	}
	if stats.BlockedEvaluations != 1 {
		t.Errorf("BlockedEvaluations = %d", stats.BlockedEvaluations)
	}
	if stats.SuccessRate < 66 || stats.SuccessRate > 67 {
		t.Errorf("SuccessRate = %v, want ~66.7", stats.SuccessRate)
	}
	if stats.AverageDuration != 20*time.Millisecond {
		t.Errorf("AverageDuration = %v", stats.AverageDuration)
	}
	if stats.ToolUsage["evaluate_run"] != 2 {
		t.Errorf("ToolUsage = %v", stats.ToolUsage)
	}
	if stats.OperationCounts["evaluate"] != 2 || stats.OperationCounts["read"] != 1 {
		t.Errorf("OperationCounts = %v", stats.OperationCounts)
	}
	if stats.ErrorCounts["RESOURCE_NOT_FOUND"] != 1 {
		t.Errorf("ErrorCounts = %v", stats.ErrorCounts)
	}
}

func TestRingBufferEviction(t *testing.T) {
	logger := newTestLogger(true)
	logger.maxEntries = 5

	for i := 0; i < 8; i++ {
		logger.Log(context.Background(), Entry{Tool: "t", Findings: i})
	}

	if got := logger.GetStats().TotalEntries; got != 5 {
		t.Fatalf("TotalEntries = %d, want 5", got)
	}
	newest := logger.GetRecentEntries(1)
	if newest[0].Findings != 7 {
		t.Errorf("newest entry = %d, want 7", newest[0].Findings)
	}
}

func TestClear(t *testing.T) {
	logger := newTestLogger(true)
	logger.Log(context.Background(), Entry{Tool: "x"})

	logger.Clear()

	if got := logger.GetStats().TotalEntries; got != 0 {
		t.Errorf("TotalEntries after Clear = %d", got)
	}
}
