package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/LookoutProject/lookout/pkg/health"
)

// ErrManualIntervention is returned by handlers whose remediation
// cannot be automated. The handler has already logged operator
// guidance; the registry reports OutcomeManualIntervention instead of a
// failure so callers can tell the two apart.
var ErrManualIntervention = errors.New("manual intervention required")

// Outcome classifies a recovery dispatch.
type Outcome string

const (
	// OutcomeNotAttempted means the result carried no action, or no
	// handler was registered for it.
	OutcomeNotAttempted Outcome = "not_attempted"

	// OutcomeFailed means the handler ran and failed.
	OutcomeFailed Outcome = "failed"

	// OutcomeSucceeded means the handler ran and reported success.
	OutcomeSucceeded Outcome = "succeeded"

	// OutcomeManualIntervention means the action requires an operator;
	// guidance was emitted but nothing was remediated.
	OutcomeManualIntervention Outcome = "manual_intervention"
)

// OK reports whether the remediation actually succeeded. It collapses
// the outcome to the boolean the CLI exit-code contract is built on.
func (o Outcome) OK() bool {
	return o == OutcomeSucceeded
}

// Handler performs one remediation. Handlers are expected to be
// idempotent: a recovery pass may invoke the same handler repeatedly
// for the same underlying condition.
type Handler interface {
	Handle(ctx context.Context) error
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context) error

func (f HandlerFunc) Handle(ctx context.Context) error {
	return f(ctx)
}

// Registry maps recovery actions to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Action]Handler
	logger   *slog.Logger
}

// NewRegistry creates an empty registry. If logger is nil,
// slog.Default() is used.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		handlers: make(map[Action]Handler),
		logger:   logger,
	}
}

// Register binds a handler to an action. Registering a tag outside the
// action vocabulary is an error.
func (r *Registry) Register(action Action, handler Handler) error {
	if !action.Valid() {
		return fmt.Errorf("unknown recovery action %q", action)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[action] = handler
	return nil
}

// Actions returns the registered action tags.
func (r *Registry) Actions() []Action {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Action, 0, len(r.handlers))
	for a := range r.handlers {
		out = append(out, a)
	}
	return out
}

// Run dispatches the recovery action carried on a check result. A
// failing or panicking handler is logged and reported as OutcomeFailed;
// nothing propagates past this boundary.
func (r *Registry) Run(ctx context.Context, result health.CheckResult) Outcome {
	action := Action(result.RecoveryAction)
	if action == "" {
		return OutcomeNotAttempted
	}

	r.mu.RLock()
	handler, ok := r.handlers[action]
	r.mu.RUnlock()
	if !ok {
		return OutcomeNotAttempted
	}

	err := r.safeHandle(ctx, handler)
	switch {
	case err == nil:
		r.logger.InfoContext(ctx, "recovery action succeeded",
			slog.String("check", result.Name),
			slog.String("action", string(action)),
		)
		return OutcomeSucceeded
	case errors.Is(err, ErrManualIntervention):
		r.logger.InfoContext(ctx, "recovery action requires operator",
			slog.String("check", result.Name),
			slog.String("action", string(action)),
		)
		return OutcomeManualIntervention
	default:
		r.logger.WarnContext(ctx, "recovery action failed",
			slog.String("check", result.Name),
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
		)
		return OutcomeFailed
	}
}

func (r *Registry) safeHandle(ctx context.Context, handler Handler) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return handler.Handle(ctx)
}
