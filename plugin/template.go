package plugin

import (
	"context"
	"fmt"

	"github.com/promptmesh/promptmesh/core"
	"github.com/promptmesh/promptmesh/internal/util"
)

// Template is a bundled plugin that produces grounding instructions from a
// text/template string and a state map. When the turn already carries
// instructions (from the caller or an earlier plugin) their content is used
// as the template instead, so state substitution applies to caller-supplied
// text; otherwise the plugin's own template generates the instructions.
//
// Template helpers available inside templates: default, upper, lower, title,
// join.
type Template struct {
	Base
	text  string
	state map[string]any
}

// NewTemplate creates a Template plugin with the given fallback template
// text and substitution state. The state map is read on every send; do not
// mutate it while sends are in flight.
func NewTemplate(text string, state map[string]any) *Template {
	return &Template{Base: NewBase("template"), text: text, state: state}
}

// OnBuildInstructions renders the active template over the state map.
func (t *Template) OnBuildInstructions(_ context.Context, instructions *core.SystemMessage) (*core.SystemMessage, error) {
	text := t.text
	if instructions != nil && instructions.Content != "" {
		text = instructions.Content
	}

	rendered, err := util.RenderTemplate(text, t.state)
	if err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}

	msg := core.NewSystemMessage(rendered)
	return &msg, nil
}
