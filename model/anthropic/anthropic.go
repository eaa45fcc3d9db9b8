// Package anthropic implements model.Model on top of the Anthropic Messages
// API. Responses are delivered whole; chunk handlers on the request are not
// invoked. Function calling follows the same loop as the OpenAI adapter:
// requested tools are executed and their results fed back until the model
// answers without calls.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/promptmesh/promptmesh/core"
	"github.com/promptmesh/promptmesh/model"
)

// Options configures the Anthropic model adapter (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string

	// MaxRounds bounds the function calling loop, one provider call per round.
	MaxRounds int
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

var _ model.Model = (*Model)(nil)

// NewModel creates a new Anthropic model using the official client
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new Anthropic model from an existing client
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
		MaxRounds:   8,
	}
}

// GenerateText implements model.Model.
func (m *Model) GenerateText(ctx context.Context, req model.Request) (core.ModelMessage, error) {
	if err := req.Memory.Append(ctx, req.Input); err != nil {
		return core.ModelMessage{}, err
	}

	tools := buildTools(req.Functions)

	for round := 0; round < m.opts.MaxRounds; round++ {
		transcript, err := req.Memory.GetAll(ctx)
		if err != nil {
			return core.ModelMessage{}, err
		}

		params := anthropic.MessageNewParams{
			Model:       m.opts.Model,
			Messages:    buildMessages(transcript),
			MaxTokens:   m.opts.MaxTokens,
			Temperature: anthropic.Float(m.opts.Temperature),
		}
		if systemBlocks := buildSystemBlocks(req.System, transcript); len(systemBlocks) > 0 {
			params.System = systemBlocks
		}
		if len(tools) > 0 {
			params.Tools = tools
		}

		resp, err := m.client.Messages.New(ctx, params)
		if err != nil {
			return core.ModelMessage{}, fmt.Errorf("anthropic api error: %w", err)
		}

		response := buildResponse(resp)
		if err := req.Memory.Append(ctx, response); err != nil {
			return core.ModelMessage{}, err
		}

		if !response.HasFunctionCalls() {
			return response, nil
		}

		for _, call := range response.FunctionCalls {
			result, err := executeCall(ctx, req, call)
			if err != nil {
				return core.ModelMessage{}, err
			}
			if err := req.Memory.Append(ctx, core.NewFunctionMessage(call.ID, result)); err != nil {
				return core.ModelMessage{}, err
			}
		}
	}

	return core.ModelMessage{}, fmt.Errorf("function call loop exceeded %d rounds", m.opts.MaxRounds)
}

// executeCall runs a single requested function. Requests for unregistered
// functions fold into a result string; handler errors propagate untouched.
func executeCall(ctx context.Context, req model.Request, call core.FunctionCall) (string, error) {
	fn, ok := req.Function(call.Name)
	if !ok {
		return fmt.Sprintf("function %s not found", call.Name), nil
	}
	return fn.Handler(ctx, call.Arguments)
}

// buildSystemBlocks collects the resolved instructions plus any system
// entries in the transcript. Anthropic carries system text outside the
// message list.
func buildSystemBlocks(system *core.SystemMessage, transcript []core.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	if system != nil && system.Content != "" {
		blocks = append(blocks, anthropic.TextBlockParam{Text: system.Content})
	}
	for _, msg := range transcript {
		if sm, ok := msg.(core.SystemMessage); ok && sm.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: sm.Content})
		}
	}
	return blocks
}

// buildMessages converts the memory transcript to Anthropic message params.
// Consecutive function results are grouped into a single user message of
// tool_result blocks, which is the shape the Messages API requires.
func buildMessages(transcript []core.Message) []anthropic.MessageParam {
	var messages []anthropic.MessageParam
	var pendingResults []anthropic.ContentBlockParamUnion

	flushResults := func() {
		if len(pendingResults) == 0 {
			return
		}
		messages = append(messages, anthropic.NewUserMessage(pendingResults...))
		pendingResults = nil
	}

	for _, msg := range transcript {
		switch v := msg.(type) {
		case core.SystemMessage:
			// handled by buildSystemBlocks
		case core.UserMessage:
			flushResults()
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(v.Content)))
		case core.ModelMessage:
			flushResults()
			var blocks []anthropic.ContentBlockParamUnion
			if v.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(v.Content))
			}
			for _, call := range v.FunctionCalls {
				input := call.Arguments
				if input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, input, call.Name))
			}
			if len(blocks) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(blocks...))
			}
		case core.FunctionMessage:
			pendingResults = append(pendingResults, anthropic.NewToolResultBlock(v.FunctionID, v.Content, false))
		}
	}
	flushResults()

	return messages
}

// buildTools converts the exposed functions to Anthropic tool params.
func buildTools(functions []*core.Function) []anthropic.ToolUnionParam {
	if len(functions) == 0 {
		return nil
	}
	tools := make([]anthropic.ToolUnionParam, 0, len(functions))
	for _, fn := range functions {
		d := fn.Describe()

		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if d.Parameters != nil {
			if properties, ok := d.Parameters["properties"]; ok {
				inputSchema.Properties = properties
			}
			inputSchema.Required = requiredNames(d.Parameters["required"])
		}

		tools = append(tools, anthropic.ToolUnionParamOfTool(inputSchema, d.Name))
	}
	return tools
}

// requiredNames normalizes a schema "required" entry to a string slice.
func requiredNames(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		var names []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
		return names
	default:
		return nil
	}
}

// buildResponse converts an Anthropic message into the normalized response.
func buildResponse(resp *anthropic.Message) core.ModelMessage {
	var content string
	var calls []core.FunctionCall

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			content += block.AsText().Text
		case "tool_use":
			tu := block.AsToolUse()
			calls = append(calls, core.FunctionCall{
				ID:        tu.ID,
				Name:      tu.Name,
				Arguments: decodeInput(tu.Input),
			})
		}
	}

	return core.ModelMessage{Content: content, FunctionCalls: calls}
}

// decodeInput converts an opaque tool_use input into the raw argument map
// handlers consume.
func decodeInput(input any) map[string]any {
	if input == nil {
		return nil
	}
	data, err := json.Marshal(input)
	if err != nil {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal(data, &args); err != nil {
		return nil
	}
	return args
}
