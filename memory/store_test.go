package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/promptmesh/promptmesh/core"
)

func TestStore_ConversationCreatesLazily(t *testing.T) {
	s := NewStore()
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d conversations", s.Len())
	}

	mem := s.Conversation("conv-1")
	if mem == nil {
		t.Fatal("expected a memory instance")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 conversation, got %d", s.Len())
	}

	if again := s.Conversation("conv-1"); again != mem {
		t.Error("expected the same live memory on repeated lookups")
	}
}

func TestStore_ConversationsAreIsolated(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.Conversation("a").Append(ctx, core.NewUserMessage("for a")); err != nil {
		t.Fatalf("append: %v", err)
	}

	msgs, err := s.Conversation("b").GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected empty transcript for b, got %d messages", len(msgs))
	}
}

func TestStore_Delete(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.Conversation("gone").Append(ctx, core.NewUserMessage("hi")); err != nil {
		t.Fatalf("append: %v", err)
	}
	s.Delete("gone")

	msgs, err := s.Conversation("gone").GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected a fresh transcript after delete, got %d messages", len(msgs))
	}
}

func TestStore_IDsSorted(t *testing.T) {
	s := NewStore()
	for _, id := range []string{"c", "a", "b"} {
		s.Conversation(id)
	}

	ids := s.IDs()
	want := []string{"a", "b", "c"}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%5))
			mem := s.Conversation(id)
			_ = mem.Append(ctx, core.NewUserMessage("msg"))
			_, _ = mem.GetAll(ctx)
		}(i)
	}
	wg.Wait()

	if s.Len() != 5 {
		t.Errorf("expected 5 conversations, got %d", s.Len())
	}
}
