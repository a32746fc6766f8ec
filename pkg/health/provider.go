package health

import (
	"context"
	"time"
)

// Provider performs one named health check.
//
// Check may perform arbitrary blocking I/O. It reports ordinary
// diagnostic outcomes (degraded dependencies, missing files) through the
// returned CheckResult; the error return is reserved for the check
// itself failing to execute. The orchestrator converts such a failure
// into an unknown-status result, so a provider fault never aborts the
// remaining checks.
type Provider interface {
	// Name is a stable identifier, unique within a level. It keys the
	// duration histogram and the well-known gauge mappings.
	Name() string

	// Level reports when this check is relevant.
	Level() Level

	// Check performs the health check.
	Check(ctx context.Context) (CheckResult, error)
}

// ProviderFunc adapts an ordinary function to the Provider interface.
type ProviderFunc struct {
	name  string
	level Level
	fn    func(context.Context) (CheckResult, error)
}

// NewProviderFunc creates a ProviderFunc.
func NewProviderFunc(name string, level Level, fn func(context.Context) (CheckResult, error)) *ProviderFunc {
	return &ProviderFunc{name: name, level: level, fn: fn}
}

func (p *ProviderFunc) Name() string { return p.name }

func (p *ProviderFunc) Level() Level { return p.level }

func (p *ProviderFunc) Check(ctx context.Context) (CheckResult, error) {
	return p.fn(ctx)
}

// Sink observes every executed check, on the side. Implementations are
// strictly best-effort: they must never influence results or control
// flow, and the orchestrator swallows anything they panic with.
type Sink interface {
	Observe(result CheckResult, duration time.Duration)
}

// Runner is the execution surface shared by the Orchestrator and the
// caching wrapper around it.
type Runner interface {
	RunLevel(ctx context.Context, level Level) Report
	RunAll(ctx context.Context) Report
}
