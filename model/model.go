package model

import (
	"context"

	"github.com/promptmesh/promptmesh/core"
)

// ChunkHandler receives incremental text deltas during streaming generation.
// Returning a non-nil error aborts the generation; the error is surfaced to
// the caller of GenerateText unchanged. Concatenating every chunk yields the
// text content of the final response, though providers that do not stream may
// deliver zero chunks.
type ChunkHandler func(ctx context.Context, chunk string) error

// Request captures the normalized model input produced by the prompt layer.
//
// Handlers on Functions accept the raw argument payload exactly as the
// provider surfaced it (a map[string]any decoded from JSON, or nil); argument
// parsing and validation happen inside the handler. The prompt layer installs
// such handlers before the request reaches a backend.
type Request struct {
	// Input is the message that triggered this generation. Backends append
	// it to Memory before calling the provider.
	Input core.Message

	// System carries the resolved instructions, nil when the conversation
	// runs without any.
	System *core.SystemMessage

	// Memory holds the conversation transcript. Backends read it to build
	// provider messages and write the input and every response back to it.
	// Never nil; the prompt layer supplies a default.
	Memory core.Memory

	// Functions the model may call during this generation, in exposure order.
	Functions []*core.Function

	// OnChunk, when set, receives streamed text deltas.
	OnChunk ChunkHandler
}

// Function resolves a callable by name from the request's exposure set.
func (r Request) Function(name string) (*core.Function, bool) {
	for _, fn := range r.Functions {
		if fn != nil && fn.Name == name {
			return fn, true
		}
	}
	return nil, false
}

// Model is the minimal interface the prompt layer requires to drive
// generation. Implementations own the full round: append the input to
// memory, call the provider, execute any requested functions, feed the
// results back until the provider stops calling, append responses to
// memory, and return the final message.
type Model interface {
	GenerateText(ctx context.Context, req Request) (core.ModelMessage, error)
}
