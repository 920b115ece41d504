package core

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: run", ErrNotFound)

	// Harness errors
	ErrTrainingFailure  = errors.New("training failure")
	ErrUndefinedMetric  = errors.New("undefined metric")
	ErrConfiguration    = errors.New("configuration error")
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// Determinism errors
	ErrSeedMismatch = errors.New("seed mismatch")
)

// UndefinedMetricError names every rate whose denominator was zero.
type UndefinedMetricError struct {
	Metrics []string
}

func (e *UndefinedMetricError) Error() string {
	return fmt.Sprintf("%s: %s has zero denominator", ErrUndefinedMetric, strings.Join(e.Metrics, ", "))
}

func (e *UndefinedMetricError) Unwrap() error {
	return ErrUndefinedMetric
}

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewTrainingFailure(reason string) error {
	return fmt.Errorf("%w: %s", ErrTrainingFailure, reason)
}

func NewConfigurationError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrConfiguration, field, reason)
}

func NewInsufficientDataError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInsufficientData, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsTrainingFailure(err error) bool {
	return errors.Is(err, ErrTrainingFailure)
}

func IsUndefinedMetric(err error) bool {
	return errors.Is(err, ErrUndefinedMetric)
}

func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
