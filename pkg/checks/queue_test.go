package checks

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/LookoutProject/lookout/pkg/clock"
	"github.com/LookoutProject/lookout/pkg/health"
	"github.com/LookoutProject/lookout/pkg/recovery"
)

func repeatTimes(ts time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = ts
	}
	return out
}

func TestQueueDepth_WithinLimit(t *testing.T) {
	path := createSessionsDB(t, repeatTimes(time.Now(), 3))
	check := NewQueueDepth(path, 10)

	result, err := check.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Status != health.StatusHealthy {
		t.Errorf("Status = %v, want %v", result.Status, health.StatusHealthy)
	}
	if depth, ok := result.Details.Float("depth"); !ok || depth != 3 {
		t.Errorf("depth detail = %v, %v, want 3", depth, ok)
	}
}

func TestQueueDepth_OverLimit(t *testing.T) {
	path := createSessionsDB(t, repeatTimes(time.Now(), 5))
	check := NewQueueDepth(path, 4)

	result, err := check.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Status != health.StatusDegraded {
		t.Errorf("Status = %v, want %v", result.Status, health.StatusDegraded)
	}
	if result.RecoveryAction != string(recovery.ActionDrainQueue) {
		t.Errorf("RecoveryAction = %q, want %q", result.RecoveryAction, recovery.ActionDrainQueue)
	}
}

func TestQueueDepth_MissingDatabase(t *testing.T) {
	check := NewQueueDepth(filepath.Join(t.TempDir(), "absent.db"), 10)

	result, err := check.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Status != health.StatusHealthy {
		t.Errorf("Status = %v, want %v", result.Status, health.StatusHealthy)
	}
}

func TestBacklog_CountsOnlyStaleRows(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := []time.Time{
		now.Add(-10 * time.Minute),
		now.Add(-2 * time.Hour),
		now.Add(-3 * time.Hour),
	}
	path := createSessionsDB(t, rows)
	check := NewBacklog(path, 10, clock.NewFake(now))

	result, err := check.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Status != health.StatusHealthy {
		t.Errorf("Status = %v, want %v", result.Status, health.StatusHealthy)
	}
	if count, ok := result.Details.Float("count"); !ok || count != 2 {
		t.Errorf("count detail = %v, %v, want 2", count, ok)
	}
}

func TestBacklog_OverLimit(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	path := createSessionsDB(t, repeatTimes(now.Add(-2*time.Hour), 3))
	check := NewBacklog(path, 2, clock.NewFake(now))

	result, err := check.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Status != health.StatusDegraded {
		t.Errorf("Status = %v, want %v", result.Status, health.StatusDegraded)
	}
	if result.RecoveryAction != string(recovery.ActionDrainBacklog) {
		t.Errorf("RecoveryAction = %q, want %q", result.RecoveryAction, recovery.ActionDrainBacklog)
	}
}
