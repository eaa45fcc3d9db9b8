package testutil

import (
	"github.com/promptmesh/promptmesh/core"
	"github.com/promptmesh/promptmesh/memory"
)

// ConversationBuilder provides a fluent helper for constructing message
// transcripts in tests.
// Example:
//
//	msgs := NewConversationBuilder().
//	    System("Be brief").
//	    User("hi").
//	    Model("hello").
//	    Build()
//
// Chain only the parts you need; entries appear in call order.
type ConversationBuilder struct {
	msgs []core.Message
}

// NewConversationBuilder creates an empty builder.
func NewConversationBuilder() *ConversationBuilder { return &ConversationBuilder{} }

// System appends a system message (chainable).
func (b *ConversationBuilder) System(text string) *ConversationBuilder {
	b.msgs = append(b.msgs, core.NewSystemMessage(text))
	return b
}

// User appends a user message (chainable).
func (b *ConversationBuilder) User(text string) *ConversationBuilder {
	b.msgs = append(b.msgs, core.NewUserMessage(text))
	return b
}

// Model appends a plain model message (chainable).
func (b *ConversationBuilder) Model(text string) *ConversationBuilder {
	b.msgs = append(b.msgs, core.ModelMessage{Content: text})
	return b
}

// ModelCall appends a model message carrying a single function call (chainable).
func (b *ConversationBuilder) ModelCall(content, callID, name string, args map[string]any) *ConversationBuilder {
	b.msgs = append(b.msgs, core.ModelMessage{
		Content: content,
		FunctionCalls: []core.FunctionCall{
			{ID: callID, Name: name, Arguments: args},
		},
	})
	return b
}

// FunctionResult appends a function result message (chainable).
func (b *ConversationBuilder) FunctionResult(callID, result string) *ConversationBuilder {
	b.msgs = append(b.msgs, core.NewFunctionMessage(callID, result))
	return b
}

// Build returns the assembled transcript.
func (b *ConversationBuilder) Build() []core.Message {
	return append([]core.Message{}, b.msgs...)
}

// Memory returns a ListMemory seeded with the assembled transcript.
func (b *ConversationBuilder) Memory() *memory.ListMemory {
	return memory.NewListMemory(b.msgs...)
}
