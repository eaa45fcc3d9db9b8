package memory

import (
	"sort"
	"sync"
)

// Store is a volatile registry of conversations held in a process local map,
// each bound to its own ListMemory. It is safe for concurrent access and best
// suited for tests, demos or single-process bots serving several
// conversations at once. Unlike a snapshotting store, Conversation returns
// the live memory so callers can bind it directly to a prompt.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*ListMemory
}

// NewStore constructs an empty in‑memory conversation store.
func NewStore() *Store {
	return &Store{conversations: make(map[string]*ListMemory)}
}

// Conversation returns the memory for the given conversation, creating it
// lazily on first use.
func (s *Store) Conversation(id string) *ListMemory {
	s.mu.RLock()
	mem, ok := s.conversations[id]
	s.mu.RUnlock()
	if ok {
		return mem
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if mem, ok := s.conversations[id]; ok {
		return mem
	}
	mem = NewListMemory()
	s.conversations[id] = mem
	return mem
}

// Delete removes a conversation and its transcript.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, id)
}

// IDs returns the known conversation IDs in lexical order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.conversations))
	for id := range s.conversations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len reports the number of known conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}
