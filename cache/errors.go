package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a key doesn't exist or has expired.
	ErrNotFound = errors.New("cache: key not found")
	// ErrClosed is returned when using a closed cache.
	ErrClosed = errors.New("cache: connection closed")
	// ErrInvalidTTL is returned for negative TTLs.
	ErrInvalidTTL = errors.New("cache: invalid TTL")
)

// ConnectionError reports a failure reaching the cache server.
type ConnectionError struct {
	Op      string
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cache connection error: %s failed for %s: %v", e.Op, e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// NewConnectionError creates a new connection error.
func NewConnectionError(op, address string, err error) *ConnectionError {
	return &ConnectionError{Op: op, Address: address, Err: err}
}

// OperationError reports a failed command against a key.
type OperationError struct {
	Op  string
	Key string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("cache operation error: %s failed for key %q: %v", e.Op, e.Key, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// NewOperationError creates a new operation error.
func NewOperationError(op, key string, err error) *OperationError {
	return &OperationError{Op: op, Key: key, Err: err}
}
