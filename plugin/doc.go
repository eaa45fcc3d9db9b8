// Package plugin provides the hook pipeline that extends a ChatPrompt send
// without modifying core logic. It defines:
//
//   - Plugin, the capability interface with one method per lifecycle hook
//   - Base, an embeddable implementation supplying no-op defaults
//   - Pipeline, the ordered executor threading values through every plugin
//   - Template, a bundled plugin rendering instructions from a template
//
// Plugins run strictly in registration order at every hook, each receiving
// the previous plugin's output. A hook returning an error terminates the
// send; there is no hook isolation or partial recovery.
package plugin
