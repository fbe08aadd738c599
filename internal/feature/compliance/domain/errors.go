// Package domain defines domain-level errors for the compliance feature.
package domain

import "errors"

// Domain errors for compliance operations.
// Upper layers match them with errors.Is and translate them into operation results.
var (
	// ErrInputValidation indicates a missing or invalid caller-supplied field
	// (empty description, unknown regulation code, no staged files).
	ErrInputValidation = errors.New("invalid input")

	// ErrStateUnavailable indicates that an operation ran before its prerequisite state existed.
	ErrStateUnavailable = errors.New("session state unavailable")

	// ErrEmptyInput is returned when a chunk batch to load is empty.
	ErrEmptyInput = errors.New("no document chunks to load")

	// ErrPlannerFailure wraps any failure of the agent-planning path.
	ErrPlannerFailure = errors.New("planner failed")

	// ErrFallbackFailure wraps a failure of the direct tool invocation path.
	ErrFallbackFailure = errors.New("direct tool invocation failed")

	// ErrCollaborator wraps failures of the regulation provider, document parser or language model.
	ErrCollaborator = errors.New("collaborator failure")

	// ErrUnknownTool is returned when a tool name is not part of the tool set.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrRegulationNotFound is returned by regulation repositories for codes with no catalogue entry.
	ErrRegulationNotFound = errors.New("regulation not found")
)
