package dispatch

import (
	"errors"

	"github.com/ehr/hospitalcrm/internal/platform/apperr"
)

// ErrorResult is the structured error returned to tool callers.
type ErrorResult struct {
	Kind       apperr.Kind `json:"kind"`
	Argument   string      `json:"argument,omitempty"`
	Message    string      `json:"message"`
	Constraint string      `json:"constraint,omitempty"`
	Retryable  bool        `json:"retryable"`
}

// NewErrorResult flattens an error from Call. Errors without a Kind become
// a generic internal error so driver text never reaches the caller.
func NewErrorResult(err error) ErrorResult {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		return ErrorResult{Kind: apperr.KindInternal, Message: "internal error"}
	}
	return ErrorResult{
		Kind:       ae.Kind,
		Argument:   ae.Argument,
		Message:    ae.Message,
		Constraint: ae.Constraint,
		Retryable:  ae.Kind.Retryable(),
	}
}
