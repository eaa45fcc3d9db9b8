// Package promptmesh provides a high-level façade over the prompt
// orchestrator and its service abstractions (models, memory, plugins &
// logging) enabling rapid construction of model-driven conversations. Most
// applications interact with this package by:
//  1. Creating a Chat via New() (optionally overriding the default in‑memory transcript)
//  2. Registering functions the model may call and plugins that shape the lifecycle
//  3. Sending messages synchronously (Send) or with streaming (SendOptions.OnChunk)
//
// The façade delegates orchestration to prompt.ChatPrompt while keeping setup
// and usage ergonomics concise. All defaults are safe for local development
// and testing; production deployments typically supply durable memory
// implementations and a structured logger.
package promptmesh

import (
	"github.com/promptmesh/promptmesh/core"
	"github.com/promptmesh/promptmesh/logging"
	"github.com/promptmesh/promptmesh/memory"
	"github.com/promptmesh/promptmesh/model"
	"github.com/promptmesh/promptmesh/plugin"
	"github.com/promptmesh/promptmesh/prompt"
)

// Options configures the Chat instance.
type Options struct {
	// Functions the model may call during sends.
	Functions []*core.Function

	// Plugins shaping every send, run in registration order.
	Plugins []plugin.Plugin

	// Memory holding the conversation transcript (defaults to an in-memory
	// implementation if not provided).
	Memory core.Memory

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// New creates a ready-to-use ChatPrompt with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(m model.Model, optFns ...func(o *Options)) *prompt.ChatPrompt {
	opts := Options{
		Memory: memory.NewListMemory(),
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return prompt.New(m, func(o *prompt.Options) {
		o.Functions = opts.Functions
		o.Plugins = opts.Plugins
		o.Memory = opts.Memory
		o.Logger = opts.Logger
	})
}
