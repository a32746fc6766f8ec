package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LookoutProject/lookout/pkg/clock"
)

// Orchestrator owns the registered providers and runs them per level.
//
// Registration is append-only: providers cannot be removed once added,
// which keeps Checks ordering deterministic across runs.
type Orchestrator struct {
	mu        sync.RWMutex
	providers []Provider

	clock        clock.Clock
	sink         Sink
	logger       *slog.Logger
	checkTimeout time.Duration
	parallel     bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the clock used for timestamps and durations.
func WithClock(c clock.Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithSink sets the metrics sink invoked once per executed check.
func WithSink(s Sink) Option {
	return func(o *Orchestrator) { o.sink = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithCheckTimeout bounds each provider invocation. On expiry the
// orchestrator synthesizes an unknown-status result and moves on; the
// provider goroutine is left to finish in the background. Zero disables
// the deadline, in which case a blocking provider blocks the whole run.
func WithCheckTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.checkTimeout = d }
}

// WithParallel runs each level's providers concurrently. Results are
// slotted back into registration order, so Report.Checks ordering is
// unaffected.
func WithParallel(parallel bool) Option {
	return func(o *Orchestrator) { o.parallel = parallel }
}

// New creates an Orchestrator. By default checks run sequentially with
// no per-check deadline and no metrics sink.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		clock:  clock.Real(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Register adds a provider. Providers run in registration order.
func (o *Orchestrator) Register(p Provider) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.providers = append(o.providers, p)
}

// ProviderNames returns the names of all registered providers in
// registration order.
func (o *Orchestrator) ProviderNames() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	names := make([]string, len(o.providers))
	for i, p := range o.providers {
		names[i] = p.Name()
	}
	return names
}

// RunLevel executes all providers registered at the given level and
// aggregates their results.
func (o *Orchestrator) RunLevel(ctx context.Context, level Level) Report {
	o.mu.RLock()
	selected := make([]Provider, 0, len(o.providers))
	for _, p := range o.providers {
		if p.Level() == level {
			selected = append(selected, p)
		}
	}
	o.mu.RUnlock()

	start := o.clock.Now()
	results := o.runProviders(ctx, selected)
	report := Report{
		OverallStatus: Aggregate(results),
		Level:         level,
		Checks:        results,
		Timestamp:     start,
		Duration:      Seconds(o.clock.Since(start)),
	}

	o.logger.DebugContext(ctx, "health run complete",
		slog.String("run_id", uuid.NewString()),
		slog.String("level", string(level)),
		slog.String("overall", string(report.OverallStatus)),
		slog.Int("checks", len(results)),
	)

	return report
}

// RunAll executes startup, readiness and liveness checks in that order
// and aggregates the combined results.
//
// The returned report's Level is liveness even though the checks span
// all three levels. Probe consumers key only on overall_status and the
// per-check level fields, so the top-level tag has carried the last
// level run since the first release; it is preserved for compatibility
// and pinned by tests.
func (o *Orchestrator) RunAll(ctx context.Context) Report {
	start := o.clock.Now()

	var all []CheckResult
	for _, level := range Levels {
		report := o.RunLevel(ctx, level)
		all = append(all, report.Checks...)
	}

	return Report{
		OverallStatus: Aggregate(all),
		Level:         LevelLiveness,
		Checks:        all,
		Timestamp:     start,
		Duration:      Seconds(o.clock.Since(start)),
	}
}

func (o *Orchestrator) runProviders(ctx context.Context, providers []Provider) []CheckResult {
	results := make([]CheckResult, len(providers))

	if o.parallel && len(providers) > 1 {
		var wg sync.WaitGroup
		for i, p := range providers {
			wg.Add(1)
			go func(i int, p Provider) {
				defer wg.Done()
				results[i] = o.runOne(ctx, p)
			}(i, p)
		}
		wg.Wait()
		return results
	}

	for i, p := range providers {
		results[i] = o.runOne(ctx, p)
	}
	return results
}

func (o *Orchestrator) runOne(ctx context.Context, p Provider) CheckResult {
	start := o.clock.Now()
	result := o.invoke(ctx, p)

	if result.Name == "" {
		result.Name = p.Name()
	}
	if result.Level == "" {
		result.Level = p.Level()
	}
	if result.Timestamp.IsZero() {
		result.Timestamp = start
	}

	o.observe(result, o.clock.Since(start))
	return result
}

// invoke runs a single provider with fault isolation. Provider errors
// and panics become unknown-status results; they never propagate.
func (o *Orchestrator) invoke(ctx context.Context, p Provider) CheckResult {
	if o.checkTimeout <= 0 {
		result, err := o.safeCheck(ctx, p)
		if err != nil {
			return o.faultResult(p, err)
		}
		return result
	}

	type outcome struct {
		result CheckResult
		err    error
	}
	ch := make(chan outcome, 1)
	go func() {
		result, err := o.safeCheck(ctx, p)
		ch <- outcome{result, err}
	}()

	select {
	case out := <-ch:
		if out.err != nil {
			return o.faultResult(p, out.err)
		}
		return out.result
	case <-o.clock.After(o.checkTimeout):
		o.logger.Warn("health check timed out",
			slog.String("check", p.Name()),
			slog.Duration("timeout", o.checkTimeout),
		)
		return CheckResult{
			Name:      p.Name(),
			Status:    StatusUnknown,
			Level:     p.Level(),
			Message:   fmt.Sprintf("check timed out after %s", o.checkTimeout),
			Timestamp: o.clock.Now(),
		}
	case <-ctx.Done():
		return o.faultResult(p, ctx.Err())
	}
}

func (o *Orchestrator) safeCheck(ctx context.Context, p Provider) (result CheckResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.Check(ctx)
}

func (o *Orchestrator) faultResult(p Provider, cause error) CheckResult {
	o.logger.Warn("health check failed",
		slog.String("check", p.Name()),
		slog.String("error", cause.Error()),
	)
	return CheckResult{
		Name:      p.Name(),
		Status:    StatusUnknown,
		Level:     p.Level(),
		Message:   fmt.Sprintf("check failed: %v", cause),
		Details:   Details{D("error", cause.Error())},
		Timestamp: o.clock.Now(),
	}
}

func (o *Orchestrator) observe(result CheckResult, duration time.Duration) {
	if o.sink == nil {
		return
	}
	// Metrics are best effort; a misbehaving sink must not reach the report.
	defer func() { _ = recover() }()
	o.sink.Observe(result, duration)
}
