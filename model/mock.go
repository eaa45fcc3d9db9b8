package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/promptmesh/promptmesh/core"
)

// MockOptions configure the scripted behavior of a Mock.
type MockOptions struct {
	// CallFunction names a function the mock requests on every generation,
	// provided the request exposes it. Empty disables function calling.
	CallFunction string

	// CallArguments is the raw argument payload attached to the scripted
	// function call.
	CallArguments map[string]any

	// CallID identifies the scripted function call.
	CallID string

	// Chunks are streamed through the request's OnChunk handler, in order,
	// before the final response is produced.
	Chunks []string

	// Err, when set, is returned from every generation untouched.
	Err error
}

// Mock is a deterministic in‑memory Model useful for tests & examples. It
// echoes the input back with a "GENERATED - " prefix, optionally streams
// scripted chunks, and optionally requests (and immediately executes) a
// single scripted function call, folding the outcome into the response text.
type Mock struct {
	mu    sync.Mutex
	opts  MockOptions
	calls int

	lastInput     core.Message
	lastSystem    *core.SystemMessage
	lastFunctions []*core.Function
}

// NewMock constructs a Mock with the given scripted behavior.
func NewMock(optFns ...func(o *MockOptions)) *Mock {
	opts := MockOptions{
		CallID: "call_123",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Mock{opts: opts}
}

// GenerateText implements Model.
func (m *Mock) GenerateText(ctx context.Context, req Request) (core.ModelMessage, error) {
	m.mu.Lock()
	m.calls++
	m.lastInput = req.Input
	m.lastSystem = req.System
	m.lastFunctions = req.Functions
	m.mu.Unlock()

	if m.opts.Err != nil {
		return core.ModelMessage{}, m.opts.Err
	}

	if err := req.Memory.Append(ctx, req.Input); err != nil {
		return core.ModelMessage{}, err
	}

	content := "GENERATED - " + textOf(req.Input)

	if req.OnChunk != nil {
		for _, chunk := range m.opts.Chunks {
			if err := req.OnChunk(ctx, chunk); err != nil {
				return core.ModelMessage{}, err
			}
		}
	}

	var functionCalls []core.FunctionCall
	if m.opts.CallFunction != "" {
		if fn, ok := req.Function(m.opts.CallFunction); ok {
			result, err := fn.Handler(ctx, m.opts.CallArguments)
			if err != nil {
				content += fmt.Sprintf(" | Function error: %s", err.Error())
			} else {
				content += fmt.Sprintf(" | Function result: %s", result)
			}
			functionCalls = append(functionCalls, core.FunctionCall{
				ID:        m.opts.CallID,
				Name:      m.opts.CallFunction,
				Arguments: m.opts.CallArguments,
			})
		}
	}

	response := core.ModelMessage{Content: content, FunctionCalls: functionCalls}
	if err := req.Memory.Append(ctx, response); err != nil {
		return core.ModelMessage{}, err
	}

	return response, nil
}

// Generations reports how many times GenerateText ran.
func (m *Mock) Generations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastInput returns the input of the most recent generation.
func (m *Mock) LastInput() core.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastInput
}

// LastSystem returns the instructions of the most recent generation.
func (m *Mock) LastSystem() *core.SystemMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSystem
}

// LastFunctions returns the functions exposed on the most recent generation.
func (m *Mock) LastFunctions() []*core.Function {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastFunctions
}

// textOf extracts the plain text content carried by any message variant.
func textOf(msg core.Message) string {
	switch v := msg.(type) {
	case core.SystemMessage:
		return v.Content
	case core.UserMessage:
		return v.Content
	case core.ModelMessage:
		return v.Content
	case core.FunctionMessage:
		return v.Content
	default:
		return ""
	}
}
