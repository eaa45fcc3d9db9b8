package prompt

import (
	"context"
	"time"

	"github.com/promptmesh/promptmesh/core"
	"github.com/promptmesh/promptmesh/logging"
	"github.com/promptmesh/promptmesh/memory"
	"github.com/promptmesh/promptmesh/model"
	"github.com/promptmesh/promptmesh/plugin"
)

// Options configure a ChatPrompt instance.
//
// Use functional options with New to override defaults.
type Options struct {
	// Functions initially registered, resolvable by the model during sends.
	Functions []*core.Function

	// Plugins initially attached, run in registration order at every hook.
	Plugins []plugin.Plugin

	// Memory is the default conversation transcript used when a send does
	// not bring its own. Nil selects a fresh in-process memory.
	Memory core.Memory

	// Logger receives structured lifecycle events. Nil selects NoOpLogger.
	Logger logging.Logger
}

// ChatPrompt orchestrates conversations with a language model.
//
// Every send runs the same lifecycle:
//   - plugins inspect and optionally rewrite the input (OnBeforeSend)
//   - plugins resolve the system instructions (OnBuildInstructions)
//   - registered functions are wrapped with validation and function hooks,
//     then plugins filter or extend the exposed set (OnBuildFunctions)
//   - the backend generates, streaming chunks when requested and executing
//     any functions the model calls
//   - plugins observe and optionally rewrite the response (OnAfterSend)
//
// The transcript, input included, is persisted to memory by the backend, so
// consecutive sends against the same memory form one coherent conversation.
//
// A ChatPrompt is safe for concurrent sends. Mutating the configuration via
// WithFunction / WithPlugin while sends are in flight is not supported.
type ChatPrompt struct {
	model    model.Model
	registry *core.Registry
	pipeline *plugin.Pipeline
	memory   core.Memory
	logger   logging.Logger
}

// New creates a ChatPrompt driving the given model backend.
func New(m model.Model, optFns ...func(o *Options)) *ChatPrompt {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	mem := opts.Memory
	if mem == nil {
		mem = memory.NewListMemory()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &ChatPrompt{
		model:    m,
		registry: core.NewRegistry(opts.Functions...),
		pipeline: plugin.NewPipeline(opts.Plugins, func(o *plugin.PipelineOptions) {
			o.Logger = opts.Logger
		}),
		memory: mem,
		logger: opts.Logger,
	}
}

// WithFunction registers functions and returns the prompt for chaining.
// Registering a name twice replaces the earlier definition in place.
func (p *ChatPrompt) WithFunction(fns ...*core.Function) *ChatPrompt {
	for _, fn := range fns {
		p.registry.Register(fn)
	}
	return p
}

// WithPlugin attaches plugins and returns the prompt for chaining.
func (p *ChatPrompt) WithPlugin(plugins ...plugin.Plugin) *ChatPrompt {
	for _, pl := range plugins {
		p.pipeline.Add(pl)
	}
	return p
}

// Functions returns the registered functions in registration order.
func (p *ChatPrompt) Functions() []*core.Function { return p.registry.All() }

// Plugins returns the attached plugins in registration order.
func (p *ChatPrompt) Plugins() []plugin.Plugin { return p.pipeline.Plugins() }

// SendOptions configure a single send.
type SendOptions struct {
	// Instructions seed the system message; plugins may rewrite or replace
	// them. Nil means the conversation runs without instructions unless a
	// plugin generates some.
	Instructions *core.SystemMessage

	// Memory overrides the prompt's conversation transcript for this send.
	Memory core.Memory

	// OnChunk receives streamed text deltas when the backend supports
	// streaming. Leave nil for blocking generation.
	OnChunk model.ChunkHandler
}

// SendResult captures the outcome of a single send.
type SendResult struct {
	// ID uniquely identifies this send, also present in emitted log events.
	ID string

	// Input is the message that reached the backend after plugin rewrites.
	Input core.Message

	// Response is the final model message after plugin rewrites.
	Response core.ModelMessage

	// Duration covers the full lifecycle including function execution.
	Duration time.Duration
}

// Send submits plain text as a user message. See SendMessage.
func (p *ChatPrompt) Send(ctx context.Context, text string, optFns ...func(o *SendOptions)) (*SendResult, error) {
	return p.SendMessage(ctx, core.NewUserMessage(text), optFns...)
}

// SendMessage runs the full conversation lifecycle for one input message.
//
// Plugin hook errors, function hook errors and backend errors abort the send
// and are returned exactly as raised. Function handler failures do not abort;
// they fold into result text the model (and after hooks) can read.
func (p *ChatPrompt) SendMessage(ctx context.Context, input core.Message, optFns ...func(o *SendOptions)) (*SendResult, error) {
	opts := SendOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	requestID := core.NewID()
	start := time.Now()
	p.logger.Debug("send.start", "request_id", requestID)

	input, err := p.pipeline.BeforeSend(ctx, input)
	if err != nil {
		p.logger.Error("send.error", "request_id", requestID, "stage", "before_send", "error", err)
		return nil, err
	}

	instructions, err := p.pipeline.BuildInstructions(ctx, opts.Instructions)
	if err != nil {
		p.logger.Error("send.error", "request_id", requestID, "stage", "build_instructions", "error", err)
		return nil, err
	}

	functions := p.registry.All()
	wrapped := make([]*core.Function, 0, len(functions))
	for _, fn := range functions {
		wrapped = append(wrapped, p.pipeline.WrapFunction(fn))
	}
	functions, err = p.pipeline.BuildFunctions(ctx, wrapped)
	if err != nil {
		p.logger.Error("send.error", "request_id", requestID, "stage", "build_functions", "error", err)
		return nil, err
	}

	mem := opts.Memory
	if mem == nil {
		mem = p.memory
	}
	if mem == nil {
		// backends rely on a non-nil memory; scope one to this call
		mem = memory.NewListMemory()
	}

	response, err := p.model.GenerateText(ctx, model.Request{
		Input:     input,
		System:    instructions,
		Memory:    mem,
		Functions: functions,
		OnChunk:   opts.OnChunk,
	})
	if err != nil {
		p.logger.Error("send.error", "request_id", requestID, "stage", "generate", "error", err)
		return nil, err
	}

	response, err = p.pipeline.AfterSend(ctx, response)
	if err != nil {
		p.logger.Error("send.error", "request_id", requestID, "stage", "after_send", "error", err)
		return nil, err
	}

	duration := time.Since(start)
	p.logger.Info("send.success",
		"request_id", requestID,
		"function_calls", len(response.FunctionCalls),
		"duration_ms", duration.Milliseconds(),
	)

	return &SendResult{
		ID:       requestID,
		Input:    input,
		Response: response,
		Duration: duration,
	}, nil
}
