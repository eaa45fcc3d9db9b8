package memory

import (
	"context"
	"sync"

	"github.com/promptmesh/promptmesh/core"
)

// ListMemory is a process-local core.Memory holding the conversation log in
// an in-memory slice.
//
// Concurrency: protected by RWMutex. GetAll returns a copy so previously
// returned snapshots are unaffected by later mutation. Suitable for tests,
// examples and single-process assistants; use the sqlite subpackage for
// durability across restarts.
type ListMemory struct {
	mu   sync.RWMutex
	msgs []core.Message
}

// NewListMemory creates a ListMemory, optionally seeded with messages.
func NewListMemory(seed ...core.Message) *ListMemory {
	msgs := make([]core.Message, len(seed))
	copy(msgs, seed)
	return &ListMemory{msgs: msgs}
}

// Append adds a message to the end of the log.
func (m *ListMemory) Append(_ context.Context, msg core.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	return nil
}

// GetAll returns a point-in-time copy of the log in insertion order.
func (m *ListMemory) GetAll(_ context.Context) ([]core.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshot := make([]core.Message, len(m.msgs))
	copy(snapshot, m.msgs)
	return snapshot, nil
}

// SetAll replaces the entire log with a copy of the given messages.
func (m *ListMemory) SetAll(_ context.Context, msgs []core.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = make([]core.Message, len(msgs))
	copy(m.msgs, msgs)
	return nil
}

// Len reports the current number of messages.
func (m *ListMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.msgs)
}
