package prompt

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptmesh/promptmesh/core"
	"github.com/promptmesh/promptmesh/internal/testutil"
	"github.com/promptmesh/promptmesh/memory"
	"github.com/promptmesh/promptmesh/model"
	"github.com/promptmesh/promptmesh/plugin"
)

// markerPlugin rewrites lifecycle values with recognizable prefixes and
// records every function hook invocation.
type markerPlugin struct {
	plugin.Base
	inputMark  string
	outputMark string
	resultMark string

	beforeCalls []string
	beforeArgs  []any
	afterCalls  []string
	afterArgs   []any
}

func newMarkerPlugin(name string) *markerPlugin {
	return &markerPlugin{Base: plugin.NewBase(name)}
}

func (p *markerPlugin) OnBeforeSend(_ context.Context, input core.Message) (core.Message, error) {
	if p.inputMark == "" {
		return nil, nil
	}
	um, ok := input.(core.UserMessage)
	if !ok {
		return nil, nil
	}
	return core.NewUserMessage(fmt.Sprintf("%s: %s", p.inputMark, um.Content)), nil
}

func (p *markerPlugin) OnBeforeFunctionCall(_ context.Context, name string, args any) error {
	p.beforeCalls = append(p.beforeCalls, name)
	p.beforeArgs = append(p.beforeArgs, args)
	return nil
}

func (p *markerPlugin) OnAfterFunctionCall(_ context.Context, name string, result string, args any) (string, error) {
	p.afterCalls = append(p.afterCalls, name)
	p.afterArgs = append(p.afterArgs, args)
	if p.resultMark == "" {
		return result, nil
	}
	return fmt.Sprintf("%s: %s", p.resultMark, result), nil
}

func (p *markerPlugin) OnAfterSend(_ context.Context, response core.ModelMessage) (*core.ModelMessage, error) {
	if p.outputMark == "" {
		return nil, nil
	}
	modified := response
	modified.Content = fmt.Sprintf("%s: %s", p.outputMark, response.Content)
	return &modified, nil
}

// instructionsPlugin generates instructions when none exist and rewrites
// them when they do.
type instructionsPlugin struct{ plugin.Base }

func (instructionsPlugin) OnBuildInstructions(_ context.Context, instructions *core.SystemMessage) (*core.SystemMessage, error) {
	if instructions == nil {
		msg := core.NewSystemMessage("Plugin-generated system message")
		return &msg, nil
	}
	msg := core.NewSystemMessage("Plugin-modified: " + instructions.Content)
	return &msg, nil
}

type echoArgs struct {
	Value string `json:"value" description:"Value to echo"`
}

func testFunction(t *testing.T) *core.Function {
	t.Helper()
	return core.NewFunction("test_function", "A test function",
		func(_ context.Context, args echoArgs) (string, error) {
			return "Function executed successfully", nil
		})
}

// -------------------- Basic Send --------------------

func TestSend_EchoesThroughModel(t *testing.T) {
	chat := New(model.NewMock())

	result, err := chat.Send(context.Background(), "Hello")
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, core.NewUserMessage("Hello"), result.Input)
	assert.Equal(t, "GENERATED - Hello", result.Response.Content)
	assert.Equal(t, core.RoleModel, result.Response.Role())
	assert.GreaterOrEqual(t, result.Duration.Nanoseconds(), int64(0))
}

func TestSendMessage_AcceptsMessageValues(t *testing.T) {
	chat := New(model.NewMock())

	result, err := chat.SendMessage(context.Background(), core.NewUserMessage("Direct"))
	require.NoError(t, err)
	assert.Equal(t, "GENERATED - Direct", result.Response.Content)
}

func TestSend_UpdatesMemory(t *testing.T) {
	mem := memory.NewListMemory()
	chat := New(model.NewMock(), func(o *Options) { o.Memory = mem })

	result, err := chat.Send(context.Background(), "Hello")
	require.NoError(t, err)

	msgs, err := mem.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, core.NewUserMessage("Hello"), msgs[0])
	assert.Equal(t, result.Response, msgs[1])
}

func TestSend_MultipleSendsAccumulateHistory(t *testing.T) {
	mem := memory.NewListMemory()
	chat := New(model.NewMock(), func(o *Options) { o.Memory = mem })

	inputs := []string{"First", "Second", "Third"}
	for _, text := range inputs {
		_, err := chat.Send(context.Background(), text)
		require.NoError(t, err)
	}

	msgs, err := mem.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 2*len(inputs), "every send stores its input and its response")

	for i, text := range inputs {
		assert.Equal(t, core.NewUserMessage(text), msgs[2*i])
		assert.Equal(t, "GENERATED - "+text, msgs[2*i+1].(core.ModelMessage).Content)
	}
}

func TestSend_PerSendMemoryOverride(t *testing.T) {
	shared := memory.NewListMemory()
	side := memory.NewListMemory()
	chat := New(model.NewMock(), func(o *Options) { o.Memory = shared })

	_, err := chat.Send(context.Background(), "aside", func(o *SendOptions) { o.Memory = side })
	require.NoError(t, err)

	sideMsgs, err := side.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, sideMsgs, 2)

	sharedMsgs, err := shared.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sharedMsgs, "overridden sends leave the default transcript untouched")
}

func TestSend_InstructionsReachModel(t *testing.T) {
	m := model.NewMock()
	chat := New(m)

	system := core.NewSystemMessage("You are helpful")
	_, err := chat.Send(context.Background(), "Hello", func(o *SendOptions) {
		o.Instructions = &system
	})
	require.NoError(t, err)

	require.NotNil(t, m.LastSystem())
	assert.Equal(t, "You are helpful", m.LastSystem().Content)
}

func TestSend_NoInstructionsByDefault(t *testing.T) {
	m := model.NewMock()
	chat := New(m)

	_, err := chat.Send(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Nil(t, m.LastSystem())
}

// -------------------- Plugin Lifecycle --------------------

func TestSend_PluginRewritesInput(t *testing.T) {
	pl := newMarkerPlugin("rewriter")
	pl.inputMark = "MODIFIED"
	m := model.NewMock()
	chat := New(m, func(o *Options) { o.Plugins = []plugin.Plugin{pl} })

	result, err := chat.Send(context.Background(), "Original")
	require.NoError(t, err)

	assert.Equal(t, "GENERATED - MODIFIED: Original", result.Response.Content)
	assert.Equal(t, core.NewUserMessage("MODIFIED: Original"), result.Input,
		"the rewritten input is what the conversation records")
	assert.Equal(t, core.NewUserMessage("MODIFIED: Original"), m.LastInput())
}

func TestSend_PluginRewritesResponse(t *testing.T) {
	pl := newMarkerPlugin("rewriter")
	pl.outputMark = "WRAPPED"
	chat := New(model.NewMock(), func(o *Options) { o.Plugins = []plugin.Plugin{pl} })

	result, err := chat.Send(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "WRAPPED: GENERATED - Hello", result.Response.Content)
}

func TestSend_MultiplePluginsRunInRegistrationOrder(t *testing.T) {
	first := newMarkerPlugin("plugin1")
	first.inputMark = "FIRST"
	first.outputMark = "FIRST_RESP"
	second := newMarkerPlugin("plugin2")
	second.inputMark = "SECOND"
	second.outputMark = "SECOND_RESP"

	chat := New(model.NewMock(), func(o *Options) {
		o.Plugins = []plugin.Plugin{first, second}
	})

	result, err := chat.Send(context.Background(), "Original")
	require.NoError(t, err)

	// Both directions run in registration order: first's rewrite happens
	// first on the way in and first on the way out.
	assert.Equal(t, "SECOND_RESP: FIRST_RESP: GENERATED - SECOND: FIRST: Original", result.Response.Content)
}

func TestSend_PluginGeneratesInstructions(t *testing.T) {
	m := model.NewMock()
	chat := New(m, func(o *Options) {
		o.Plugins = []plugin.Plugin{instructionsPlugin{Base: plugin.NewBase("inst")}}
	})

	_, err := chat.Send(context.Background(), "Hello")
	require.NoError(t, err)

	require.NotNil(t, m.LastSystem())
	assert.Equal(t, "Plugin-generated system message", m.LastSystem().Content)
}

func TestSend_PluginModifiesInstructions(t *testing.T) {
	m := model.NewMock()
	chat := New(m, func(o *Options) {
		o.Plugins = []plugin.Plugin{instructionsPlugin{Base: plugin.NewBase("inst")}}
	})

	system := core.NewSystemMessage("Original system")
	_, err := chat.Send(context.Background(), "Hello", func(o *SendOptions) {
		o.Instructions = &system
	})
	require.NoError(t, err)

	require.NotNil(t, m.LastSystem())
	assert.Equal(t, "Plugin-modified: Original system", m.LastSystem().Content)
}

func TestSend_TemplatePluginResolvesInstructions(t *testing.T) {
	m := model.NewMock()
	chat := New(m, func(o *Options) {
		o.Plugins = []plugin.Plugin{
			plugin.NewTemplate("You assist {{.name}}.", map[string]any{"name": "Grace"}),
		}
	})

	_, err := chat.Send(context.Background(), "Hello")
	require.NoError(t, err)

	require.NotNil(t, m.LastSystem())
	assert.Equal(t, "You assist Grace.", m.LastSystem().Content)
}

type faultyPlugin struct {
	plugin.Base
	err error
}

func (p faultyPlugin) OnBeforeSend(context.Context, core.Message) (core.Message, error) {
	return nil, p.err
}

func TestSend_PluginErrorPropagatesUnchanged(t *testing.T) {
	boom := errors.New("Plugin error")
	m := model.NewMock()
	chat := New(m, func(o *Options) {
		o.Plugins = []plugin.Plugin{faultyPlugin{Base: plugin.NewBase("faulty"), err: boom}}
	})

	_, err := chat.Send(context.Background(), "Hello")
	assert.Same(t, boom, err)
	assert.Zero(t, m.Generations(), "a failed before hook must keep the model untouched")
}

func TestSend_ModelErrorPropagatesUnchanged(t *testing.T) {
	boom := errors.New("Model error")
	m := model.NewMock(func(o *model.MockOptions) { o.Err = boom })
	chat := New(m)

	_, err := chat.Send(context.Background(), "Hello")
	assert.Same(t, boom, err)
}

func TestSend_WithoutPluginsMatchesPluginlessBehavior(t *testing.T) {
	plain := New(model.NewMock())
	empty := New(model.NewMock(), func(o *Options) { o.Plugins = []plugin.Plugin{} })

	r1, err := plain.Send(context.Background(), "same")
	require.NoError(t, err)
	r2, err := empty.Send(context.Background(), "same")
	require.NoError(t, err)

	assert.Equal(t, r1.Response, r2.Response)
}

// -------------------- Function Calling --------------------

func TestSend_ModelCallsRegisteredFunction(t *testing.T) {
	m := model.NewMock(func(o *model.MockOptions) {
		o.CallFunction = "test_function"
		o.CallArguments = map[string]any{"value": "test_input"}
	})
	chat := New(m).WithFunction(testFunction(t))

	result, err := chat.Send(context.Background(), "Call the function")
	require.NoError(t, err)

	assert.Equal(t, "GENERATED - Call the function | Function result: Function executed successfully",
		result.Response.Content)
	require.Len(t, result.Response.FunctionCalls, 1)
	call := result.Response.FunctionCalls[0]
	assert.Equal(t, "call_123", call.ID)
	assert.Equal(t, "test_function", call.Name)
	assert.Equal(t, map[string]any{"value": "test_input"}, call.Arguments)
}

func TestSend_FunctionHooksObserveParsedArguments(t *testing.T) {
	pl := newMarkerPlugin("observer")
	m := model.NewMock(func(o *model.MockOptions) {
		o.CallFunction = "test_function"
		o.CallArguments = map[string]any{"value": "test_input"}
	})
	chat := New(m, func(o *Options) { o.Plugins = []plugin.Plugin{pl} }).
		WithFunction(testFunction(t))

	_, err := chat.Send(context.Background(), "Call it")
	require.NoError(t, err)

	require.Len(t, pl.beforeCalls, 1)
	assert.Equal(t, "test_function", pl.beforeCalls[0])
	require.IsType(t, echoArgs{}, pl.beforeArgs[0], "hooks receive parsed arguments, not raw maps")
	assert.Equal(t, "test_input", pl.beforeArgs[0].(echoArgs).Value)

	require.Len(t, pl.afterCalls, 1)
	assert.Equal(t, "test_function", pl.afterCalls[0])
}

func TestSend_AfterFunctionHookRewritesResult(t *testing.T) {
	pl := newMarkerPlugin("rewriter")
	pl.resultMark = "MODIFIED"
	m := model.NewMock(func(o *model.MockOptions) {
		o.CallFunction = "test_function"
		o.CallArguments = map[string]any{"value": "test_input"}
	})
	chat := New(m, func(o *Options) { o.Plugins = []plugin.Plugin{pl} }).
		WithFunction(testFunction(t))

	result, err := chat.Send(context.Background(), "Call it")
	require.NoError(t, err)
	assert.Equal(t, "GENERATED - Call it | Function result: MODIFIED: Function executed successfully",
		result.Response.Content)
}

func TestSend_WrappedFunctionsKeepNameAndDescription(t *testing.T) {
	m := model.NewMock()
	chat := New(m).WithFunction(testFunction(t))

	_, err := chat.Send(context.Background(), "Hello")
	require.NoError(t, err)

	require.Len(t, m.LastFunctions(), 1)
	exposed := m.LastFunctions()[0]
	assert.Equal(t, "test_function", exposed.Name)
	assert.Equal(t, "A test function", exposed.Description)
	require.NotNil(t, exposed.Schema, "the parameter schema survives wrapping")
}

func TestSend_NoParamsFunction(t *testing.T) {
	m := model.NewMock(func(o *model.MockOptions) {
		o.CallFunction = "no_param_func"
	})
	fn := core.NewFunctionNoParams("no_param_func", "Function with no parameters",
		func(context.Context) (string, error) { return "Success", nil })
	chat := New(m).WithFunction(fn)

	result, err := chat.Send(context.Background(), "Go")
	require.NoError(t, err)
	assert.Equal(t, "GENERATED - Go | Function result: Success", result.Response.Content)
}

func TestSend_InvalidArgumentsFoldIntoResult(t *testing.T) {
	m := model.NewMock(func(o *model.MockOptions) {
		o.CallFunction = "test_function"
		o.CallArguments = map[string]any{"value": 12}
	})
	chat := New(m).WithFunction(testFunction(t))

	result, err := chat.Send(context.Background(), "Call it")
	require.NoError(t, err)
	assert.Contains(t, result.Response.Content, "Function result: parameter validation failed")
}

func TestSend_FunctionHandlerErrorFoldsIntoResult(t *testing.T) {
	m := model.NewMock(func(o *model.MockOptions) {
		o.CallFunction = "flaky"
		o.CallArguments = map[string]any{"value": "x"}
	})
	fn := core.NewFunction("flaky", "Always fails",
		func(_ context.Context, args echoArgs) (string, error) {
			return "", errors.New("database unavailable")
		})
	chat := New(m).WithFunction(fn)

	result, err := chat.Send(context.Background(), "Call it")
	require.NoError(t, err, "handler failures stay inside the conversation")
	assert.Contains(t, result.Response.Content, "Function result: function execution failed: database unavailable")
}

// -------------------- Registration --------------------

func TestWithFunction_ChainsAndRegisters(t *testing.T) {
	a := core.NewFunctionNoParams("a", "A", func(context.Context) (string, error) { return "", nil })
	b := core.NewFunctionNoParams("b", "B", func(context.Context) (string, error) { return "", nil })

	chat := New(model.NewMock()).WithFunction(a).WithFunction(b)

	fns := chat.Functions()
	require.Len(t, fns, 2)
	assert.Equal(t, "a", fns[0].Name)
	assert.Equal(t, "b", fns[1].Name)
}

func TestWithFunction_OverwriteKeepsCountAndPosition(t *testing.T) {
	first := core.NewFunctionNoParams("dup", "old", func(context.Context) (string, error) { return "old", nil })
	other := core.NewFunctionNoParams("other", "", func(context.Context) (string, error) { return "", nil })
	replacement := core.NewFunctionNoParams("dup", "new", func(context.Context) (string, error) { return "new", nil })

	chat := New(model.NewMock()).WithFunction(first, other).WithFunction(replacement)

	fns := chat.Functions()
	require.Len(t, fns, 2, "re-registering a name replaces, never duplicates")
	assert.Equal(t, "dup", fns[0].Name)
	assert.Equal(t, "new", fns[0].Description)
	assert.Equal(t, "other", fns[1].Name)
}

func TestWithPlugin_Chains(t *testing.T) {
	p1 := plugin.NewBase("one")
	p2 := plugin.NewBase("two")

	chat := New(model.NewMock()).WithPlugin(p1).WithPlugin(p2)

	require.Len(t, chat.Plugins(), 2)
	assert.Equal(t, "one", chat.Plugins()[0].Name())
	assert.Equal(t, "two", chat.Plugins()[1].Name())
}

// -------------------- Memory Edge Cases --------------------

func TestSend_ContinuesSeededConversation(t *testing.T) {
	mem := testutil.NewConversationBuilder().
		User("What's 2+2?").
		Model("4").
		Memory()
	chat := New(model.NewMock(), func(o *Options) { o.Memory = mem })

	_, err := chat.Send(context.Background(), "And 3+3?")
	require.NoError(t, err)

	msgs, err := mem.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 4, "the send extends the seeded history")
	assert.Equal(t, core.NewUserMessage("What's 2+2?"), msgs[0])
	assert.Equal(t, core.NewUserMessage("And 3+3?"), msgs[2])
}

func TestSend_StorageErrorPropagatesUnchanged(t *testing.T) {
	cause := errors.New("disk full")
	storageErr := core.NewStorageError("append", cause)
	chat := New(model.NewMock(), func(o *Options) {
		o.Memory = testutil.FailingMemory{Err: storageErr}
	})

	_, err := chat.Send(context.Background(), "Hello")
	require.Error(t, err)

	var se *core.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "append", se.Op)
	assert.ErrorIs(t, err, cause)
}

// -------------------- Streaming --------------------

func TestSend_StreamsChunksInOrder(t *testing.T) {
	m := model.NewMock(func(o *model.MockOptions) {
		o.Chunks = []string{"chunk1 ", "chunk2 ", "chunk3"}
	})
	chat := New(m)

	var got []string
	result, err := chat.Send(context.Background(), "Stream it", func(o *SendOptions) {
		o.OnChunk = func(_ context.Context, chunk string) error {
			got = append(got, chunk)
			return nil
		}
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"chunk1 ", "chunk2 ", "chunk3"}, got)
	assert.Equal(t, "GENERATED - Stream it", result.Response.Content,
		"the final response arrives complete regardless of streaming")
}

func TestSend_ChunkHandlerErrorAbortsSend(t *testing.T) {
	boom := errors.New("consumer gone")
	m := model.NewMock(func(o *model.MockOptions) {
		o.Chunks = []string{"a"}
	})
	chat := New(m)

	_, err := chat.Send(context.Background(), "Stream it", func(o *SendOptions) {
		o.OnChunk = func(context.Context, string) error { return boom }
	})
	assert.Same(t, boom, err)
}
