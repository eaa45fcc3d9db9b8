package core

import (
	"errors"

	"github.com/google/uuid"
)

// Role identifies the author category of a conversation message.
type Role string

const (
	// RoleSystem marks grounding instructions injected ahead of the conversation.
	RoleSystem Role = "system"
	// RoleUser marks caller-authored input.
	RoleUser Role = "user"
	// RoleModel marks model-authored output (text and/or function calls).
	RoleModel Role = "model"
	// RoleFunction marks the recorded result of a completed function call.
	RoleFunction Role = "function"
)

// Message represents a polymorphic conversation turn. Concrete message types
// implement the unexported isMessage marker enabling a closed set. After
// construction a message should be treated as immutable; transformations
// produce new values.
type Message interface {
	// Role reports the author category of the message.
	Role() Role

	isMessage()
}

// SystemMessage carries grounding instructions for the model. It is built per
// turn and never persisted to conversation memory.
type SystemMessage struct {
	Content string `json:"content"` // Instruction text
}

// isMessage implements the Message interface for SystemMessage.
func (SystemMessage) isMessage() {}

// Role implements the Message interface for SystemMessage.
func (SystemMessage) Role() Role { return RoleSystem }

// NewSystemMessage constructs a system message with the given instruction text.
func NewSystemMessage(content string) SystemMessage {
	return SystemMessage{Content: content}
}

// UserMessage carries caller-authored input text.
type UserMessage struct {
	Content string `json:"content"` // Plain UTF-8 text
}

// isMessage implements the Message interface for UserMessage.
func (UserMessage) isMessage() {}

// Role implements the Message interface for UserMessage.
func (UserMessage) Role() Role { return RoleUser }

// NewUserMessage constructs a user message from input text.
func NewUserMessage(content string) UserMessage {
	return UserMessage{Content: content}
}

// FunctionCall describes a model-issued request to invoke a named function.
// ID is an opaque correlation token linking the call to its recorded result.
// Arguments hold the raw payload exactly as produced by the model; they are
// validated and converted by the function's schema at execution time.
type FunctionCall struct {
	ID        string         `json:"id"`                  // Correlation token, unique within the turn
	Name      string         `json:"name"`                // Registered function name
	Arguments map[string]any `json:"arguments,omitempty"` // Raw argument payload
}

// ModelMessage carries model-authored output: optional text content and an
// optional ordered list of function calls. At least one of the two must be
// present; use NewModelMessage to construct validated values.
type ModelMessage struct {
	Content       string         `json:"content,omitempty"`        // Assistant text, may be empty when calls are present
	FunctionCalls []FunctionCall `json:"function_calls,omitempty"` // Ordered call requests, may be empty when content is present
}

// isMessage implements the Message interface for ModelMessage.
func (ModelMessage) isMessage() {}

// Role implements the Message interface for ModelMessage.
func (ModelMessage) Role() Role { return RoleModel }

// ErrEmptyModelMessage is returned when a model message is constructed with
// neither text content nor function calls.
var ErrEmptyModelMessage = errors.New("model message requires content or at least one function call")

// NewModelMessage constructs a model message, enforcing that at least one of
// content or function calls is present.
func NewModelMessage(content string, calls ...FunctionCall) (ModelMessage, error) {
	if content == "" && len(calls) == 0 {
		return ModelMessage{}, ErrEmptyModelMessage
	}
	return ModelMessage{Content: content, FunctionCalls: calls}, nil
}

// HasFunctionCalls reports whether the message requests any function
// invocations, i.e. the turn is not yet complete.
func (m ModelMessage) HasFunctionCalls() bool { return len(m.FunctionCalls) > 0 }

// FunctionMessage records the string result of a completed function call,
// correlated to the originating call by FunctionID.
type FunctionMessage struct {
	FunctionID string `json:"function_id"`       // Matches the originating FunctionCall ID
	Content    string `json:"content,omitempty"` // Result payload as observed by the model
}

// isMessage implements the Message interface for FunctionMessage.
func (FunctionMessage) isMessage() {}

// Role implements the Message interface for FunctionMessage.
func (FunctionMessage) Role() Role { return RoleFunction }

// NewFunctionMessage constructs a function result message for the given call ID.
func NewFunctionMessage(functionID, content string) FunctionMessage {
	return FunctionMessage{FunctionID: functionID, Content: content}
}

// NewID generates a new unique identifier for requests and function calls.
//
// Returns a string representation of a new UUID.
func NewID() string { return uuid.NewString() }
