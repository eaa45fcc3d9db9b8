package core

import "fmt"

// ValidationError represents argument validation failures with detailed
// information. It is produced when a raw argument payload does not satisfy a
// function's schema and is folded into the function result at the execution
// boundary rather than surfaced to the caller of Send.
type ValidationError struct {
	Field   string `json:"field"`   // Field that failed validation
	Value   any    `json:"value"`   // Value that was provided
	Message string `json:"message"` // Human-readable error message
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// StorageError represents a conversation memory backend failure. Op names the
// failing operation (append, get_all, set_all); Err carries the underlying
// cause.
type StorageError struct {
	Op  string // Memory operation that failed
	Err error  // Underlying backend error
}

// NewStorageError constructs a StorageError for the given operation and cause.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// Error implements the error interface for StorageError.
func (e *StorageError) Error() string {
	return fmt.Sprintf("memory %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As chains.
func (e *StorageError) Unwrap() error { return e.Err }
