// Package core provides the Engram store: an associative memory over text
// chunks with multi-strategy retrieval, reinforcement feedback, and
// persistence through a secure storage backend.
package core

import (
	"errors"
	"fmt"
)

// Predefined errors for common failure scenarios.
var (
	// ErrNotFound indicates that a requested chunk was not found.
	ErrNotFound = errors.New("chunk not found")

	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidInput indicates that the provided input is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownStrategy indicates an unrecognized retrieval strategy.
	ErrUnknownStrategy = errors.New("unknown retrieval strategy")

	// ErrEmbeddingFailed indicates that embedding generation failed.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrStorageOperation indicates that a storage operation failed.
	ErrStorageOperation = errors.New("storage operation failed")

	// ErrSnapshotCorrupt indicates that a persisted snapshot could not
	// be decoded.
	ErrSnapshotCorrupt = errors.New("snapshot corrupt")
)

// StoreError wraps errors with operation context.
//
// It records which store operation failed, making error messages more
// informative for debugging.
//
// Example:
//
//	err := &StoreError{
//	    Op:  "Add",
//	    Err: ErrEmbeddingFailed,
//	}
//	// Error() returns: "engram: Add: embedding generation failed"
type StoreError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message.
//
// The format is: "engram: <Op>: <Err>"
func (e *StoreError) Error() string {
	return fmt.Sprintf("engram: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
//
// This allows using errors.Is() and errors.As() with StoreError.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError wrapping the given error.
//
// If err is nil, returns nil. This allows safe error wrapping:
//
//	if err != nil {
//	    return NewStoreError("Add", err)
//	}
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{
		Op:  op,
		Err: err,
	}
}
