package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"compliance_backend/internal/feature/compliance/domain"
)

// describeError turns an internal error into a plain-language message for
// the caller. Wrapped detail and internal identifiers are not exposed.
func describeError(err error, operation string) string {
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "timeout"):
		return fmt.Sprintf("The language model took too long to respond during %s. Please try again.", operation)
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "quota"):
		return fmt.Sprintf("The language model is rate limited or out of quota during %s. Please wait a moment and try again.", operation)
	case strings.Contains(msg, "api key") || strings.Contains(msg, "401") ||
		strings.Contains(msg, "403") || strings.Contains(msg, "permission_denied"):
		return fmt.Sprintf("The language model rejected the configured credentials during %s. Check the API key.", operation)
	case errors.Is(err, context.Canceled):
		return fmt.Sprintf("The request was cancelled during %s.", operation)
	case errors.Is(err, domain.ErrRegulationNotFound):
		return fmt.Sprintf("No requirements are available for this regulation during %s.", operation)
	case errors.Is(err, domain.ErrCollaborator):
		return fmt.Sprintf("An external service failed during %s. Please try again later.", operation)
	default:
		return fmt.Sprintf("Error during %s. Please try again.", operation)
	}
}
