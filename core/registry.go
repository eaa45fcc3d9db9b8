package core

// Registry holds named functions in registration order. Registering a name a
// second time replaces the earlier entry while preserving its original
// position (last write wins, no rejection).
//
// A Registry is not synchronized; register all functions before sends begin
// and treat it as read-only afterwards.
type Registry struct {
	order []string
	items map[string]*Function
}

// NewRegistry constructs a Registry seeded with the given functions.
func NewRegistry(fns ...*Function) *Registry {
	r := &Registry{items: make(map[string]*Function)}
	for _, fn := range fns {
		r.Register(fn)
	}
	return r
}

// Register adds fn under its name, replacing any earlier registration of the
// same name in place. It returns the registry to allow chaining.
func (r *Registry) Register(fn *Function) *Registry {
	if _, exists := r.items[fn.Name]; !exists {
		r.order = append(r.order, fn.Name)
	}
	r.items[fn.Name] = fn
	return r
}

// Resolve looks up a function by name.
func (r *Registry) Resolve(name string) (*Function, bool) {
	fn, ok := r.items[name]
	return fn, ok
}

// All returns a snapshot of the registered functions in registration order.
// Mutating the returned slice does not affect the registry.
func (r *Registry) All() []*Function {
	fns := make([]*Function, 0, len(r.order))
	for _, name := range r.order {
		fns = append(fns, r.items[name])
	}
	return fns
}

// Len reports the number of registered functions.
func (r *Registry) Len() int { return len(r.items) }
