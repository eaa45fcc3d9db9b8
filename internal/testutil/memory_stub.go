package testutil

import (
	"context"

	"github.com/promptmesh/promptmesh/core"
)

// FailingMemory is a core.Memory stub whose operations all fail with the
// configured error. Useful for asserting that storage failures surface
// through higher layers untouched.
type FailingMemory struct {
	Err error
}

// Append implements core.Memory.
func (m FailingMemory) Append(context.Context, core.Message) error { return m.Err }

// GetAll implements core.Memory.
func (m FailingMemory) GetAll(context.Context) ([]core.Message, error) { return nil, m.Err }

// SetAll implements core.Memory.
func (m FailingMemory) SetAll(context.Context, []core.Message) error { return m.Err }
