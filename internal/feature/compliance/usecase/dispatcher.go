package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"compliance_backend/internal/feature/compliance/domain"
	"compliance_backend/internal/feature/compliance/domain/entity"
)

var errNoPlanner = errors.New("no planner configured")

// PlanKind tags the variant of a PlanResult.
type PlanKind int

const (
	// PlanPlainText is a free-text final answer.
	PlanPlainText PlanKind = iota
	// PlanStructuredAction is a final answer shaped as {"action": ..., "action_input": ...}.
	PlanStructuredAction
)

// PlanResult is the planner's final outcome.
type PlanResult struct {
	Kind        PlanKind
	Text        string // PlanPlainText
	Action      string // PlanStructuredAction
	ActionInput string // PlanStructuredAction; the canonical output text
}

// Output returns the canonical output text, or fallback when the result is empty.
func (r PlanResult) Output(fallback string) string {
	var out string
	switch r.Kind {
	case PlanStructuredAction:
		out = r.ActionInput
	default:
		out = r.Text
	}
	if out == "" {
		return fallback
	}
	return out
}

// ToolCall names a tool and its arguments.
type ToolCall struct {
	Name string
	Args map[string]any
}

// Intent is a high-level action to dispatch. Prompt is handed to the planner;
// Fallback is the single pre-mapped tool call used when planning fails.
type Intent struct {
	Operation     string
	Prompt        string
	Fallback      ToolCall
	DefaultOutput string
}

// Outcome is the tagged result of a dispatch.
//
//	PathPlanned:  Output came from the planner.
//	PathFallback: the planner failed (PlannerErr) and the direct call produced Output.
//	PathFailed:   both paths failed; Err wraps domain.ErrFallbackFailure.
type Outcome struct {
	Path       entity.DispatchPath
	Output     string
	PlannerErr error
	Err        error
}

// Dispatcher resolves an intent through the planner first and a direct tool call second.
type Dispatcher struct {
	planner  Planner
	observer DispatchObserver
}

// NewDispatcher creates a Dispatcher. A nil planner sends every intent straight
// to the direct path; a nil observer is ignored.
func NewDispatcher(planner Planner, observer DispatchObserver) *Dispatcher {
	if observer == nil {
		observer = noopObserver{}
	}
	return &Dispatcher{planner: planner, observer: observer}
}

// Dispatch runs intent against tools. It never returns a planner failure to the
// caller if the direct call succeeds, and never retries the direct call.
// Session state may be left partially mutated when a path fails mid-way.
func (d *Dispatcher) Dispatch(ctx context.Context, tools ToolExecutor, intent Intent) Outcome {
	start := time.Now()
	out := d.dispatch(ctx, tools, intent)
	d.observer.ObserveDispatch(intent.Operation, out.Path, time.Since(start))
	return out
}

func (d *Dispatcher) dispatch(ctx context.Context, tools ToolExecutor, intent Intent) Outcome {
	res, planErr := d.plan(ctx, tools, intent.Prompt)
	if planErr == nil {
		return Outcome{Path: entity.PathPlanned, Output: res.Output(intent.DefaultOutput)}
	}

	if errors.Is(planErr, errNoPlanner) {
		slog.Debug("no planner configured, using direct tool call",
			"operation", intent.Operation, "tool", intent.Fallback.Name)
	} else {
		slog.Warn("planner failed, falling back to direct tool call",
			"operation", intent.Operation, "tool", intent.Fallback.Name, "error", planErr)
	}

	result, err := tools.Execute(ctx, intent.Fallback.Name, intent.Fallback.Args)
	if err != nil {
		slog.Error("direct tool call failed",
			"operation", intent.Operation, "tool", intent.Fallback.Name, "error", err)
		return Outcome{
			Path:       entity.PathFailed,
			PlannerErr: planErr,
			Err:        fmt.Errorf("%w: %s: %w", domain.ErrFallbackFailure, intent.Fallback.Name, err),
		}
	}

	output := result.Output
	if output == "" {
		output = intent.DefaultOutput
	}
	return Outcome{Path: entity.PathFallback, Output: output, PlannerErr: planErr}
}

// plan runs the planner and converts every failure mode, panics included, into an error.
func (d *Dispatcher) plan(ctx context.Context, tools ToolExecutor, prompt string) (res PlanResult, err error) {
	if d.planner == nil {
		return PlanResult{}, fmt.Errorf("%w: %w", domain.ErrPlannerFailure, errNoPlanner)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", domain.ErrPlannerFailure, r)
		}
	}()

	res, err = d.planner.Plan(ctx, prompt, tools)
	if err != nil {
		if errors.Is(err, domain.ErrPlannerFailure) {
			return PlanResult{}, err
		}
		return PlanResult{}, fmt.Errorf("%w: %w", domain.ErrPlannerFailure, err)
	}
	return res, nil
}
