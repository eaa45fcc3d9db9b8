package plugin

import (
	"context"

	"github.com/promptmesh/promptmesh/core"
)

// Plugin defines the lifecycle hooks a ChatPrompt invokes during one send.
//
// Hooks follow a "no change" convention so implementations only need to act
// at the points they care about:
//   - OnBeforeSend: nil Message keeps the prior input
//   - OnBuildInstructions: nil keeps the prior instructions (which may be nil)
//   - OnBuildFunctions: nil slice keeps the prior set; an empty non-nil slice
//     hides every function from the model
//   - OnBeforeFunctionCall: observation only
//   - OnAfterFunctionCall: the returned string replaces the evolving result;
//     return the input unchanged to pass it through
//   - OnAfterSend: nil keeps the prior response
//
// Implementations should be fast (hooks run synchronously on the send path)
// and must not retain references to the values they receive beyond the call.
// Returning an error from any hook terminates the send immediately.
//
// Embed Base to inherit no-op defaults and override only the hooks of
// interest.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// OnBeforeSend runs before the input message reaches the model. It may
	// replace the input by returning a non-nil Message.
	OnBeforeSend(ctx context.Context, input core.Message) (core.Message, error)

	// OnBuildInstructions runs while assembling the system message for the
	// turn. It may generate instructions when none exist or replace the ones
	// built so far.
	OnBuildInstructions(ctx context.Context, instructions *core.SystemMessage) (*core.SystemMessage, error)

	// OnBuildFunctions runs over the functions that will be exposed to the
	// model for this turn. It may filter, reorder, augment or clear the set.
	OnBuildFunctions(ctx context.Context, functions []*core.Function) ([]*core.Function, error)

	// OnBeforeFunctionCall runs before a function handler executes. args is
	// the schema-parsed argument value the handler will receive.
	OnBeforeFunctionCall(ctx context.Context, name string, args any) error

	// OnAfterFunctionCall runs after a function handler executed (or its
	// failure was folded into a result string). The returned string becomes
	// the result recorded for the model.
	OnAfterFunctionCall(ctx context.Context, name string, result string, args any) (string, error)

	// OnAfterSend runs over the model's final response before it is returned
	// to the caller. It may replace the response by returning non-nil.
	OnAfterSend(ctx context.Context, response core.ModelMessage) (*core.ModelMessage, error)
}

// Base provides no-op defaults for every hook together with a plugin name.
// It is a complete Plugin on its own and is intended for embedding:
//
//	type auditPlugin struct {
//		plugin.Base
//	}
//
//	func newAuditPlugin() *auditPlugin {
//		return &auditPlugin{Base: plugin.NewBase("audit")}
//	}
type Base struct {
	name string
}

// NewBase constructs a Base carrying the given plugin name.
func NewBase(name string) Base {
	return Base{name: name}
}

// Name implements the Plugin interface.
func (b Base) Name() string { return b.name }

// OnBeforeSend implements the Plugin interface with a no-op default.
func (Base) OnBeforeSend(context.Context, core.Message) (core.Message, error) {
	return nil, nil
}

// OnBuildInstructions implements the Plugin interface with a no-op default.
func (Base) OnBuildInstructions(context.Context, *core.SystemMessage) (*core.SystemMessage, error) {
	return nil, nil
}

// OnBuildFunctions implements the Plugin interface with a no-op default.
func (Base) OnBuildFunctions(context.Context, []*core.Function) ([]*core.Function, error) {
	return nil, nil
}

// OnBeforeFunctionCall implements the Plugin interface with a no-op default.
func (Base) OnBeforeFunctionCall(context.Context, string, any) error {
	return nil
}

// OnAfterFunctionCall implements the Plugin interface, passing the result
// through unchanged.
func (Base) OnAfterFunctionCall(_ context.Context, _ string, result string, _ any) (string, error) {
	return result, nil
}

// OnAfterSend implements the Plugin interface with a no-op default.
func (Base) OnAfterSend(context.Context, core.ModelMessage) (*core.ModelMessage, error) {
	return nil, nil
}
