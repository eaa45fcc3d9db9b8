// Package prompt provides ChatPrompt, the conversation orchestrator at the
// center of PromptMesh.
//
// A ChatPrompt ties together a model backend, a registry of callable
// functions, a plugin pipeline and conversation memory. Each send runs the
// full lifecycle: plugins inspect and rewrite the input, resolve the system
// instructions and the exposed function set, the backend generates (executing
// requested functions along the way), and plugins observe and rewrite the
// final response.
//
// Construction is cheap; a ChatPrompt holds no connections of its own. The
// zero configuration path works out of the box:
//
//	chat := prompt.New(openai.NewModel())
//	result, err := chat.Send(ctx, "What's the capital of France?")
//
// Functions and plugins chain fluently:
//
//	chat := prompt.New(m).
//	    WithFunction(weatherFn).
//	    WithPlugin(audit)
package prompt
