package core

import "context"

// Memory is the ordered conversation log for a single conversation. The
// engine reads it when building model context; the model backend both reads
// and appends while resolving a turn. Implementations must preserve insertion
// order and report backend failures as *StorageError.
//
// Implementations must be safe for sequential use within one conversation;
// callers sharing one Memory across concurrent sends are responsible for
// external serialization.
type Memory interface {
	// Append adds a message to the end of the log.
	Append(ctx context.Context, msg Message) error

	// GetAll returns a point-in-time snapshot of the log in insertion order.
	// Later mutations do not affect previously returned snapshots.
	GetAll(ctx context.Context) ([]Message, error)

	// SetAll atomically replaces the entire log with the given messages.
	SetAll(ctx context.Context, msgs []Message) error
}
