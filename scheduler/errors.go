package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when triggering a job ID that was never registered.
	ErrJobNotFound = errors.New("scheduler: job not found")
	// ErrShuttingDown is returned for triggers and registrations after Shutdown began.
	ErrShuttingDown = errors.New("scheduler: shutting down")
)

// ValidationError represents an invalid job registration or schedule expression.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("scheduler: %s %s", e.Field, e.Message)
}
