// Package usecase implements the business logic for the compliance feature:
// the tool set, the two-path dispatcher and the session lifecycle.
package usecase

import (
	"context"
	"time"

	"compliance_backend/internal/feature/compliance/domain/entity"
)

// Completer sends one prompt to the language model and returns its text.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// RegulationProvider returns the requirements text for a regulation code.
// The text is opaque to the tool set.
type RegulationProvider interface {
	Requirements(ctx context.Context, code entity.RegulationCode) (string, error)
}

// RegulationCatalog lists the regulations offered to callers.
type RegulationCatalog interface {
	List(ctx context.Context) ([]entity.Regulation, error)
}

// DocumentParser turns already-validated file paths into text chunks.
type DocumentParser interface {
	Parse(ctx context.Context, paths []string) ([]entity.DocumentChunk, error)
}

// UploadRemover deletes staged upload files once they are no longer needed.
type UploadRemover interface {
	Remove(paths ...string) error
}

// Planner is the autonomous agent path. It may call any tool of the executor,
// in any order, and returns the final outcome of its plan.
type Planner interface {
	Plan(ctx context.Context, intent string, tools ToolExecutor) (PlanResult, error)
}

// DispatchObserver receives one notification per dispatched intent.
type DispatchObserver interface {
	ObserveDispatch(operation string, path entity.DispatchPath, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveDispatch(string, entity.DispatchPath, time.Duration) {}
