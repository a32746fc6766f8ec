package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/LookoutProject/lookout/pkg/clock"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func healthyProvider(name string, level Level) Provider {
	return NewProviderFunc(name, level, func(context.Context) (CheckResult, error) {
		return CheckResult{Name: name, Status: StatusHealthy, Level: level, Message: "ok"}, nil
	})
}

func statusProvider(name string, level Level, status Status) Provider {
	return NewProviderFunc(name, level, func(context.Context) (CheckResult, error) {
		return CheckResult{Name: name, Status: status, Level: level}, nil
	})
}

func TestRunLevel_FiltersByLevel(t *testing.T) {
	o := New(WithLogger(discard()))
	o.Register(healthyProvider("boot", LevelStartup))
	o.Register(healthyProvider("db", LevelReadiness))
	o.Register(healthyProvider("pid", LevelLiveness))
	o.Register(healthyProvider("queue", LevelReadiness))

	report := o.RunLevel(context.Background(), LevelReadiness)

	if report.Level != LevelReadiness {
		t.Errorf("report.Level = %v, want %v", report.Level, LevelReadiness)
	}
	if len(report.Checks) != 2 {
		t.Fatalf("len(Checks) = %d, want 2", len(report.Checks))
	}
	if report.Checks[0].Name != "db" || report.Checks[1].Name != "queue" {
		t.Errorf("check order = [%s %s], want [db queue]",
			report.Checks[0].Name, report.Checks[1].Name)
	}
	if report.OverallStatus != StatusHealthy {
		t.Errorf("OverallStatus = %v, want %v", report.OverallStatus, StatusHealthy)
	}
}

func TestRunLevel_EmptyLevel(t *testing.T) {
	o := New(WithLogger(discard()))
	o.Register(healthyProvider("pid", LevelLiveness))

	report := o.RunLevel(context.Background(), LevelStartup)

	if len(report.Checks) != 0 {
		t.Errorf("len(Checks) = %d, want 0", len(report.Checks))
	}
	if report.OverallStatus != StatusUnknown {
		t.Errorf("OverallStatus = %v, want %v", report.OverallStatus, StatusUnknown)
	}
}

func TestRunLevel_ProviderErrorIsolated(t *testing.T) {
	o := New(WithLogger(discard()))
	ran := false
	o.Register(NewProviderFunc("broken", LevelLiveness, func(context.Context) (CheckResult, error) {
		return CheckResult{}, errors.New("socket refused")
	}))
	o.Register(NewProviderFunc("after", LevelLiveness, func(context.Context) (CheckResult, error) {
		ran = true
		return CheckResult{Name: "after", Status: StatusHealthy}, nil
	}))

	report := o.RunLevel(context.Background(), LevelLiveness)

	if !ran {
		t.Fatal("provider after the failing one did not run")
	}
	if len(report.Checks) != 2 {
		t.Fatalf("len(Checks) = %d, want 2", len(report.Checks))
	}
	broken := report.Checks[0]
	if broken.Status != StatusUnknown {
		t.Errorf("broken.Status = %v, want %v", broken.Status, StatusUnknown)
	}
	if want := "check failed: socket refused"; broken.Message != want {
		t.Errorf("broken.Message = %q, want %q", broken.Message, want)
	}
	if got, ok := broken.Details.String("error"); !ok || got != "socket refused" {
		t.Errorf("broken error detail = %q, %v, want %q, true", got, ok, "socket refused")
	}
	if report.OverallStatus != StatusUnknown {
		t.Errorf("OverallStatus = %v, want %v", report.OverallStatus, StatusUnknown)
	}
}

func TestRunLevel_ProviderPanicIsolated(t *testing.T) {
	o := New(WithLogger(discard()))
	o.Register(NewProviderFunc("explodes", LevelLiveness, func(context.Context) (CheckResult, error) {
		panic("nil map write")
	}))
	o.Register(healthyProvider("after", LevelLiveness))

	report := o.RunLevel(context.Background(), LevelLiveness)

	if len(report.Checks) != 2 {
		t.Fatalf("len(Checks) = %d, want 2", len(report.Checks))
	}
	exploded := report.Checks[0]
	if exploded.Status != StatusUnknown {
		t.Errorf("exploded.Status = %v, want %v", exploded.Status, StatusUnknown)
	}
	if want := "check failed: panic: nil map write"; exploded.Message != want {
		t.Errorf("exploded.Message = %q, want %q", exploded.Message, want)
	}
	if report.Checks[1].Status != StatusHealthy {
		t.Errorf("second check status = %v, want %v", report.Checks[1].Status, StatusHealthy)
	}
}

func TestRunLevel_NormalizesResultFields(t *testing.T) {
	o := New(WithLogger(discard()))
	o.Register(NewProviderFunc("terse", LevelReadiness, func(context.Context) (CheckResult, error) {
		// Provider only fills Status; the orchestrator fills the rest.
		return CheckResult{Status: StatusHealthy}, nil
	}))

	report := o.RunLevel(context.Background(), LevelReadiness)

	got := report.Checks[0]
	if got.Name != "terse" {
		t.Errorf("Name = %q, want %q", got.Name, "terse")
	}
	if got.Level != LevelReadiness {
		t.Errorf("Level = %v, want %v", got.Level, LevelReadiness)
	}
	if got.Timestamp.IsZero() {
		t.Error("Timestamp is zero, want populated")
	}
}

func TestRunAll_OrderAndLevelTag(t *testing.T) {
	o := New(WithLogger(discard()))
	o.Register(healthyProvider("pid", LevelLiveness))
	o.Register(healthyProvider("boot", LevelStartup))
	o.Register(healthyProvider("db", LevelReadiness))

	report := o.RunAll(context.Background())

	if len(report.Checks) != 3 {
		t.Fatalf("len(Checks) = %d, want 3", len(report.Checks))
	}
	wantOrder := []string{"boot", "db", "pid"}
	for i, want := range wantOrder {
		if report.Checks[i].Name != want {
			t.Errorf("Checks[%d].Name = %q, want %q", i, report.Checks[i].Name, want)
		}
	}
	// The top-level tag stays liveness on full runs.
	if report.Level != LevelLiveness {
		t.Errorf("report.Level = %v, want %v", report.Level, LevelLiveness)
	}
}

func TestRunAll_AggregatesAcrossLevels(t *testing.T) {
	o := New(WithLogger(discard()))
	o.Register(healthyProvider("boot", LevelStartup))
	o.Register(statusProvider("db", LevelReadiness, StatusDegraded))
	o.Register(healthyProvider("pid", LevelLiveness))

	report := o.RunAll(context.Background())

	if report.OverallStatus != StatusDegraded {
		t.Errorf("OverallStatus = %v, want %v", report.OverallStatus, StatusDegraded)
	}
}

func TestRunLevel_Idempotent(t *testing.T) {
	o := New(WithLogger(discard()))
	o.Register(statusProvider("db", LevelReadiness, StatusDegraded))
	o.Register(healthyProvider("queue", LevelReadiness))

	first := o.RunLevel(context.Background(), LevelReadiness)
	second := o.RunLevel(context.Background(), LevelReadiness)

	if first.OverallStatus != second.OverallStatus {
		t.Errorf("overall differs across runs: %v then %v", first.OverallStatus, second.OverallStatus)
	}
	for i := range first.Checks {
		if first.Checks[i].Name != second.Checks[i].Name ||
			first.Checks[i].Status != second.Checks[i].Status {
			t.Errorf("check %d differs across runs: %+v then %+v",
				i, first.Checks[i], second.Checks[i])
		}
	}
}

func TestCheckTimeout(t *testing.T) {
	fake := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	release := make(chan struct{})
	o := New(
		WithLogger(discard()),
		WithClock(fake),
		WithCheckTimeout(5*time.Second),
	)
	o.Register(NewProviderFunc("stuck", LevelLiveness, func(context.Context) (CheckResult, error) {
		<-release
		return CheckResult{Name: "stuck", Status: StatusHealthy}, nil
	}))
	defer close(release)

	done := make(chan Report, 1)
	go func() {
		done <- o.RunLevel(context.Background(), LevelLiveness)
	}()

	// Wait for the timeout timer to arm, then fire it.
	deadline := time.Now().Add(2 * time.Second)
	for fake.Waiters() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the check timer to arm")
		}
		time.Sleep(time.Millisecond)
	}
	fake.Advance(5 * time.Second)

	report := <-done
	got := report.Checks[0]
	if got.Status != StatusUnknown {
		t.Errorf("Status = %v, want %v", got.Status, StatusUnknown)
	}
	if want := "check timed out after 5s"; got.Message != want {
		t.Errorf("Message = %q, want %q", got.Message, want)
	}
}

func TestParallel_PreservesOrder(t *testing.T) {
	o := New(WithLogger(discard()), WithParallel(true))

	// Earlier registrations finish later, so completion order is the
	// reverse of registration order.
	names := []string{"first", "second", "third"}
	delays := []time.Duration{30 * time.Millisecond, 15 * time.Millisecond, 0}
	for i, name := range names {
		name := name
		delay := delays[i]
		o.Register(NewProviderFunc(name, LevelReadiness, func(context.Context) (CheckResult, error) {
			time.Sleep(delay)
			return CheckResult{Name: name, Status: StatusHealthy}, nil
		}))
	}

	report := o.RunLevel(context.Background(), LevelReadiness)

	if len(report.Checks) != 3 {
		t.Fatalf("len(Checks) = %d, want 3", len(report.Checks))
	}
	for i, want := range names {
		if report.Checks[i].Name != want {
			t.Errorf("Checks[%d].Name = %q, want %q", i, report.Checks[i].Name, want)
		}
	}
}

type recordingSink struct {
	mu       sync.Mutex
	observed []string
}

func (s *recordingSink) Observe(result CheckResult, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observed = append(s.observed, result.Name)
}

func TestSink_ObservesEveryCheck(t *testing.T) {
	sink := &recordingSink{}
	o := New(WithLogger(discard()), WithSink(sink))
	o.Register(healthyProvider("db", LevelReadiness))
	o.Register(NewProviderFunc("broken", LevelReadiness, func(context.Context) (CheckResult, error) {
		return CheckResult{}, errors.New("down")
	}))

	o.RunLevel(context.Background(), LevelReadiness)

	if len(sink.observed) != 2 {
		t.Fatalf("observed %d checks, want 2", len(sink.observed))
	}
	if sink.observed[0] != "db" || sink.observed[1] != "broken" {
		t.Errorf("observed = %v, want [db broken]", sink.observed)
	}
}

type panickySink struct{}

func (panickySink) Observe(CheckResult, time.Duration) { panic("sink bug") }

func TestSink_PanicDoesNotReachReport(t *testing.T) {
	o := New(WithLogger(discard()), WithSink(panickySink{}))
	o.Register(healthyProvider("db", LevelReadiness))

	report := o.RunLevel(context.Background(), LevelReadiness)

	if report.OverallStatus != StatusHealthy {
		t.Errorf("OverallStatus = %v, want %v", report.OverallStatus, StatusHealthy)
	}
}

func TestProviderNames(t *testing.T) {
	o := New(WithLogger(discard()))
	o.Register(healthyProvider("a", LevelStartup))
	o.Register(healthyProvider("b", LevelLiveness))

	names := o.ProviderNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("ProviderNames() = %v, want [a b]", names)
	}
}
