package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/evaluation-console/internal/gateway"
	"github.com/SAP-F-2025/evaluation-console/internal/validator"
	"github.com/SAP-F-2025/evaluation-console/internal/workflow"
)

var (
	ErrValidationFailed = errors.New("validation failed")
	ErrNotFound         = errors.New("resource not found")
	ErrConflict         = errors.New("request conflicts with the current state")
	ErrUpstream         = errors.New("evaluation backend error")

	ErrSessionNotFound = fmt.Errorf("evaluation session: %w", ErrNotFound)
	ErrNoResult        = fmt.Errorf("no completed evaluation: %w", ErrConflict)
)

type ValidationErrors = validator.ValidationErrors

// classify attaches the service sentinel that matches err while keeping the
// original chain reachable for errors.As.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) || errors.Is(err, ErrUpstream) {
		return err
	}
	if _, ok := validator.AsValidationErrors(err); ok {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	if errors.Is(err, workflow.ErrInvalidTransition) ||
		errors.Is(err, workflow.ErrSubmissionInFlight) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	var gwErr *gateway.GatewayError
	if errors.As(err, &gwErr) {
		if gwErr.NotFound() {
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return err
}
