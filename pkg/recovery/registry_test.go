package recovery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/LookoutProject/lookout/pkg/health"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func resultWithAction(action Action) health.CheckResult {
	return health.CheckResult{
		Name:           "test_check",
		Status:         health.StatusUnhealthy,
		Level:          health.LevelLiveness,
		RecoveryAction: string(action),
	}
}

func TestRegistry_RejectsUnknownAction(t *testing.T) {
	r := NewRegistry(discardLogger())

	err := r.Register(Action("restart-deamon"), HandlerFunc(func(ctx context.Context) error {
		return nil
	}))
	if err == nil {
		t.Fatal("Register() with a misspelled action should fail")
	}
}

func TestRegistry_Run_NoAction(t *testing.T) {
	r := NewRegistry(discardLogger())

	result := health.CheckResult{Name: "no_action", Status: health.StatusUnhealthy}
	if got := r.Run(context.Background(), result); got != OutcomeNotAttempted {
		t.Errorf("Run() = %v, want %v", got, OutcomeNotAttempted)
	}
}

func TestRegistry_Run_UnregisteredAction(t *testing.T) {
	r := NewRegistry(discardLogger())

	got := r.Run(context.Background(), resultWithAction(ActionRotateLogs))
	if got != OutcomeNotAttempted {
		t.Errorf("Run() = %v, want %v", got, OutcomeNotAttempted)
	}
}

func TestRegistry_Run_Succeeds(t *testing.T) {
	r := NewRegistry(discardLogger())

	called := false
	if err := r.Register(ActionRestartDaemon, HandlerFunc(func(ctx context.Context) error {
		called = true
		return nil
	})); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got := r.Run(context.Background(), resultWithAction(ActionRestartDaemon))
	if got != OutcomeSucceeded {
		t.Errorf("Run() = %v, want %v", got, OutcomeSucceeded)
	}
	if !called {
		t.Error("handler was not invoked")
	}
	if !got.OK() {
		t.Error("OK() = false for a succeeded outcome")
	}
}

func TestRegistry_Run_HandlerError(t *testing.T) {
	r := NewRegistry(discardLogger())

	if err := r.Register(ActionCleanupLogs, HandlerFunc(func(ctx context.Context) error {
		return errors.New("disk went away")
	})); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got := r.Run(context.Background(), resultWithAction(ActionCleanupLogs))
	if got != OutcomeFailed {
		t.Errorf("Run() = %v, want %v", got, OutcomeFailed)
	}
	if got.OK() {
		t.Error("OK() = true for a failed outcome")
	}
}

func TestRegistry_Run_HandlerPanics(t *testing.T) {
	r := NewRegistry(discardLogger())

	if err := r.Register(ActionDrainQueue, HandlerFunc(func(ctx context.Context) error {
		panic("handler bug")
	})); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Must not propagate the panic.
	got := r.Run(context.Background(), resultWithAction(ActionDrainQueue))
	if got != OutcomeFailed {
		t.Errorf("Run() = %v, want %v", got, OutcomeFailed)
	}
}

func TestRegistry_Run_ManualIntervention(t *testing.T) {
	r := NewRegistry(discardLogger())

	if err := r.Register(ActionRunMigrations, Manual(discardLogger(), "run the migration tool")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got := r.Run(context.Background(), resultWithAction(ActionRunMigrations))
	if got != OutcomeManualIntervention {
		t.Errorf("Run() = %v, want %v", got, OutcomeManualIntervention)
	}
	if got.OK() {
		t.Error("OK() = true for a manual-intervention outcome")
	}
}

func TestRegistry_Actions(t *testing.T) {
	r := NewRegistry(discardLogger())

	noop := HandlerFunc(func(ctx context.Context) error { return nil })
	if err := r.Register(ActionRotateLogs, noop); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(ActionFreeMemory, noop); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if got := len(r.Actions()); got != 2 {
		t.Errorf("len(Actions()) = %d, want 2", got)
	}
}
