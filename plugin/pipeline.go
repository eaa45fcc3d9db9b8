package plugin

import (
	"context"
	"fmt"
	"time"

	"github.com/promptmesh/promptmesh/core"
	"github.com/promptmesh/promptmesh/logging"
)

// PipelineOptions configures construction of a Pipeline.
type PipelineOptions struct {
	// Logger receives hook and function execution traces. Defaults to
	// logging.NoOpLogger.
	Logger logging.Logger
}

// Pipeline executes an ordered list of plugins at each lifecycle hook.
//
// Plugins run sequentially in registration order, the same order for every
// hook, each receiving the previous plugin's output. If any hook returns an
// error, execution stops immediately and the error is returned to the caller
// untouched; subsequent plugins do not run.
//
// Thread safety: registration (Add) is not synchronized. Register all
// plugins before sends begin; once registration is complete, hook execution
// is safe for concurrent use.
type Pipeline struct {
	plugins []Plugin
	logger  logging.Logger
}

// NewPipeline creates a Pipeline over the given plugins.
func NewPipeline(plugins []Plugin, optFns ...func(o *PipelineOptions)) *Pipeline {
	opts := PipelineOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	ordered := make([]Plugin, len(plugins))
	copy(ordered, plugins)

	return &Pipeline{plugins: ordered, logger: opts.Logger}
}

// Add appends a plugin to the end of the execution order.
func (p *Pipeline) Add(plugin Plugin) {
	p.plugins = append(p.plugins, plugin)
}

// Plugins returns the plugins in execution order.
func (p *Pipeline) Plugins() []Plugin { return p.plugins }

// Len reports the number of registered plugins.
func (p *Pipeline) Len() int { return len(p.plugins) }

// BeforeSend threads the input message through every OnBeforeSend hook. A
// plugin returning nil keeps the value produced so far.
func (p *Pipeline) BeforeSend(ctx context.Context, input core.Message) (core.Message, error) {
	current := input
	for _, pl := range p.plugins {
		next, err := pl.OnBeforeSend(ctx, current)
		if err != nil {
			p.logger.Error("plugin.before_send.error", "plugin", pl.Name(), "error", err.Error())
			return nil, err
		}
		if next != nil {
			current = next
		}
	}
	return current, nil
}

// BuildInstructions threads the system message through every
// OnBuildInstructions hook. The seed may be nil; a plugin returning nil
// keeps the value produced so far.
func (p *Pipeline) BuildInstructions(ctx context.Context, instructions *core.SystemMessage) (*core.SystemMessage, error) {
	current := instructions
	for _, pl := range p.plugins {
		next, err := pl.OnBuildInstructions(ctx, current)
		if err != nil {
			p.logger.Error("plugin.build_instructions.error", "plugin", pl.Name(), "error", err.Error())
			return nil, err
		}
		if next != nil {
			current = next
		}
	}
	return current, nil
}

// BuildFunctions threads the function set through every OnBuildFunctions
// hook. A plugin returning a nil slice keeps the set produced so far; an
// empty non-nil slice clears it.
func (p *Pipeline) BuildFunctions(ctx context.Context, functions []*core.Function) ([]*core.Function, error) {
	current := functions
	for _, pl := range p.plugins {
		next, err := pl.OnBuildFunctions(ctx, current)
		if err != nil {
			p.logger.Error("plugin.build_functions.error", "plugin", pl.Name(), "error", err.Error())
			return nil, err
		}
		if next != nil {
			current = next
		}
	}
	return current, nil
}

// BeforeFunctionCall invokes every OnBeforeFunctionCall hook in order.
func (p *Pipeline) BeforeFunctionCall(ctx context.Context, name string, args any) error {
	for _, pl := range p.plugins {
		if err := pl.OnBeforeFunctionCall(ctx, name, args); err != nil {
			p.logger.Error("plugin.before_function.error", "plugin", pl.Name(), "function", name, "error", err.Error())
			return err
		}
	}
	return nil
}

// AfterFunctionCall threads the function result through every
// OnAfterFunctionCall hook in order, returning the final result string.
func (p *Pipeline) AfterFunctionCall(ctx context.Context, name string, result string, args any) (string, error) {
	current := result
	for _, pl := range p.plugins {
		next, err := pl.OnAfterFunctionCall(ctx, name, current, args)
		if err != nil {
			p.logger.Error("plugin.after_function.error", "plugin", pl.Name(), "function", name, "error", err.Error())
			return "", err
		}
		current = next
	}
	return current, nil
}

// AfterSend threads the model response through every OnAfterSend hook. A
// plugin returning nil keeps the value produced so far.
func (p *Pipeline) AfterSend(ctx context.Context, response core.ModelMessage) (core.ModelMessage, error) {
	current := response
	for _, pl := range p.plugins {
		next, err := pl.OnAfterSend(ctx, current)
		if err != nil {
			p.logger.Error("plugin.after_send.error", "plugin", pl.Name(), "error", err.Error())
			return core.ModelMessage{}, err
		}
		if next != nil {
			current = *next
		}
	}
	return current, nil
}

// WrapFunction returns a copy of fn whose handler accepts the raw argument
// payload produced by the model and performs the full execution sequence:
//
//  1. Parse and validate raw arguments via the function's schema
//  2. Run every OnBeforeFunctionCall hook in order
//  3. Invoke the original handler
//  4. Thread the result through every OnAfterFunctionCall hook in order
//
// Validation failures and handler errors are folded into the returned result
// string so the model observes them as a normal function outcome; a
// validation failure skips both the handler and the function hooks since the
// call never started. Plugin hook errors are returned unchanged and abort
// the send.
//
// Logging Fields:
//
//	function: function name
//	duration_ms: execution time in milliseconds
func (p *Pipeline) WrapFunction(fn *core.Function) *core.Function {
	wrapped := *fn
	wrapped.Handler = func(ctx context.Context, raw any) (string, error) {
		logger := p.logger
		start := time.Now()

		logger.Debug("function.call.start", "function", fn.Name)

		args, err := parseArguments(fn, raw)
		if err != nil {
			logger.Warn("function.call.validation_failed", "function", fn.Name, "error", err.Error())
			return fmt.Sprintf("parameter validation failed: %v", err), nil
		}

		if err := p.BeforeFunctionCall(ctx, fn.Name, args); err != nil {
			return "", err
		}

		result, err := fn.Handler(ctx, args)
		if err != nil {
			logger.Error("function.call.error", "function", fn.Name, "error", err.Error())
			result = fmt.Sprintf("function execution failed: %v", err)
		} else {
			logger.Info("function.call.success", "function", fn.Name, "duration_ms", time.Since(start).Milliseconds())
		}

		return p.AfterFunctionCall(ctx, fn.Name, result, args)
	}
	return &wrapped
}

// parseArguments produces the handler argument value for a raw payload.
// Schema-less functions always receive nil; schema-bearing functions receive
// the parse result of the raw map (a missing payload counts as empty).
func parseArguments(fn *core.Function, raw any) (any, error) {
	if fn.Schema == nil {
		return nil, nil
	}

	var m map[string]any
	switch v := raw.(type) {
	case nil:
		m = map[string]any{}
	case map[string]any:
		m = v
	default:
		return nil, &core.ValidationError{
			Value:   raw,
			Message: fmt.Sprintf("expected argument map, got %T", raw),
		}
	}

	return fn.Schema.Parse(m)
}
