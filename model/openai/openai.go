// Package openai implements model.Model on top of the OpenAI Chat
// Completions API (including streaming + function/tool calling). It adapts
// PromptMesh's message and function structures into the SDK's format and
// back, and drives the function calling loop until the model produces a
// final answer.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/promptmesh/promptmesh/core"
	"github.com/promptmesh/promptmesh/model"
)

// toolCallDelta aggregates partial tool call streaming deltas (id, name,
// arguments) so complete function calls can be reconstructed once the stream
// finishes. Internal helper (unexported).
type toolCallDelta struct{ id, name, args string }

// Options configure the OpenAI model adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64

	// MaxRounds bounds the function calling loop. A round is one provider
	// call; each requested function extends the conversation and triggers
	// another round until the model answers without calls.
	MaxRounds int
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

var _ model.Model = (*Model)(nil)

// NewModel creates a new OpenAI model using the official client
func NewModel(optFns ...func(o *Options)) *Model {
	client := openai.NewClient()
	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates a new OpenAI model from an existing client
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
		MaxRounds:           8,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// GenerateText implements model.Model. It appends the input to memory,
// calls the API (streaming when the request carries a chunk handler),
// executes requested functions and feeds their results back until the model
// stops calling, persisting every exchange along the way.
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

		params := m.buildParams(buildMessages(req.System, transcript), tools)

		var response core.ModelMessage
		if req.OnChunk != nil {
			response, err = m.generateStreaming(ctx, params, req.OnChunk)
		} else {
			response, err = m.generateBlocking(ctx, params)
		}
		if err != nil {
			return core.ModelMessage{}, err
		}

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
// functions fold into a result string the model can read; handler errors
// propagate so callers see exactly what the handler raised.
func executeCall(ctx context.Context, req model.Request, call core.FunctionCall) (string, error) {
	fn, ok := req.Function(call.Name)
	if !ok {
		return fmt.Sprintf("function %s not found", call.Name), nil
	}
	return fn.Handler(ctx, call.Arguments)
}

// buildMessages converts the resolved instructions plus the memory
// transcript into OpenAI chat messages.
func buildMessages(system *core.SystemMessage, transcript []core.Message) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(transcript)+1)
	if system != nil && system.Content != "" {
		messages = append(messages, openai.SystemMessage(system.Content))
	}
	for _, msg := range transcript {
		switch v := msg.(type) {
		case core.SystemMessage:
			messages = append(messages, openai.SystemMessage(v.Content))
		case core.UserMessage:
			messages = append(messages, openai.UserMessage(v.Content))
		case core.ModelMessage:
			if !v.HasFunctionCalls() {
				messages = append(messages, openai.AssistantMessage(v.Content))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(v.FunctionCalls))
			for _, call := range v.FunctionCalls {
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
					ID:   call.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      call.Name,
						Arguments: encodeArguments(call.Arguments),
					},
				})
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				},
			})
		case core.FunctionMessage:
			messages = append(messages, openai.ToolMessage(v.Content, v.FunctionID))
		}
	}
	return messages
}

// buildTools converts the exposed functions to OpenAI tool definitions.
func buildTools(functions []*core.Function) []openai.ChatCompletionToolParam {
	if len(functions) == 0 {
		return nil
	}
	tools := make([]openai.ChatCompletionToolParam, 0, len(functions))
	for _, fn := range functions {
		d := fn.Describe()
		tools = append(tools, openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        d.Name,
				Description: openai.String(d.Description),
				Parameters:  d.Parameters,
			},
		})
	}
	return tools
}

// buildParams assembles the OpenAI request parameters including tool definitions.
func (m *Model) buildParams(
	messages []openai.ChatCompletionMessageParamUnion,
	tools []openai.ChatCompletionToolParam,
) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}
	if len(tools) > 0 {
		params.Tools = tools
	}
	return params
}

// generateBlocking performs a normal (non-streaming) completion.
func (m *Model) generateBlocking(ctx context.Context, params openai.ChatCompletionNewParams) (core.ModelMessage, error) {
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return core.ModelMessage{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return core.ModelMessage{}, fmt.Errorf("openai returned no choices")
	}

	msg := resp.Choices[0].Message
	var calls []core.FunctionCall
	for _, tc := range msg.ToolCalls {
		calls = append(calls, core.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: decodeArguments(tc.Function.Arguments),
		})
	}
	return core.ModelMessage{Content: msg.Content, FunctionCalls: calls}, nil
}

// generateStreaming performs a streaming completion, forwarding text deltas
// to the chunk handler and aggregating tool call deltas into complete calls.
func (m *Model) generateStreaming(ctx context.Context, params openai.ChatCompletionNewParams, onChunk model.ChunkHandler) (core.ModelMessage, error) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)

	var text strings.Builder
	agg := map[int64]*toolCallDelta{}
	var order []int64

	for stream.Next() {
		chunk := stream.Current()
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				text.WriteString(choice.Delta.Content)
				if err := onChunk(ctx, choice.Delta.Content); err != nil {
					return core.ModelMessage{}, err
				}
			}
			for _, tc := range choice.Delta.ToolCalls {
				d, ok := agg[tc.Index]
				if !ok {
					d = &toolCallDelta{}
					agg[tc.Index] = d
					order = append(order, tc.Index)
				}
				if tc.ID != "" {
					d.id = tc.ID
				}
				if tc.Function.Name != "" {
					d.name = tc.Function.Name
				}
				d.args += tc.Function.Arguments
			}
		}
	}
	if err := stream.Err(); err != nil {
		return core.ModelMessage{}, fmt.Errorf("openai streaming error: %w", err)
	}

	var calls []core.FunctionCall
	for _, idx := range order {
		d := agg[idx]
		calls = append(calls, core.FunctionCall{
			ID:        d.id,
			Name:      d.name,
			Arguments: decodeArguments(d.args),
		})
	}
	return core.ModelMessage{Content: text.String(), FunctionCalls: calls}, nil
}

// encodeArguments serializes a raw argument map into the JSON string the
// API expects on replayed tool calls.
func encodeArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// decodeArguments parses a tool call argument JSON string into the raw map
// handlers consume. Malformed payloads yield nil; schema validation inside
// the handler reports the failure.
func decodeArguments(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil
	}
	return args
}
