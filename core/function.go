package core

import (
	"context"
	"fmt"
)

// Handler is the invocable body of a Function. It receives the value produced
// by the function's Schema.Parse (nil for schema-less functions) and returns
// the string result recorded for the model.
type Handler func(ctx context.Context, args any) (string, error)

// Function is a named capability a model may invoke during a turn.
//
// Responsibilities:
//   - Carries the model-facing name and description
//   - Holds an optional parameter Schema (nil marks a zero-argument function)
//   - Wraps the user supplied implementation behind a uniform Handler
//
// Concurrency:
//
//	A Function has no internal mutable state after construction and is safe
//	for concurrent use by multiple goroutines.
type Function struct {
	// Function identifier (snake_case recommended)
	Name string
	// Human-readable description shown to models
	Description string
	// Parameter schema, nil for zero-argument functions
	Schema Schema
	// User supplied implementation
	Handler Handler
}

// NewFunction constructs a Function whose parameter schema is derived from
// struct type T via reflection and whose handler receives decoded T values.
//
// Example:
//
//	type SumArgs struct {
//		A float64 `json:"a" description:"First addend"`
//		B float64 `json:"b" description:"Second addend"`
//	}
//
//	sum := core.NewFunction("calculate_sum", "Calculate the sum of two numbers",
//		func(ctx context.Context, args SumArgs) (string, error) {
//			return fmt.Sprintf("%g", args.A+args.B), nil
//		})
func NewFunction[T any](name, description string, handler func(ctx context.Context, args T) (string, error)) *Function {
	return &Function{
		Name:        name,
		Description: description,
		Schema:      SchemaOf[T](),
		Handler: func(ctx context.Context, args any) (string, error) {
			typed, ok := args.(T)
			if !ok {
				return "", &ValidationError{
					Value:   args,
					Message: fmt.Sprintf("expected arguments of type %T, got %T", typed, args),
				}
			}
			return handler(ctx, typed)
		},
	}
}

// NewFunctionNoParams constructs a schema-less Function whose handler takes
// no arguments beyond the context. Models invoke it with an empty payload.
func NewFunctionNoParams(name, description string, handler func(ctx context.Context) (string, error)) *Function {
	return &Function{
		Name:        name,
		Description: description,
		Handler: func(ctx context.Context, _ any) (string, error) {
			return handler(ctx)
		},
	}
}

// NewFunctionWithSchema constructs a Function from an explicit schema and raw
// handler for cases where a reflection-derived schema is insufficient. The
// handler receives whatever the schema's Parse produces.
func NewFunctionWithSchema(name, description string, schema Schema, handler Handler) *Function {
	return &Function{
		Name:        name,
		Description: description,
		Schema:      schema,
		Handler:     handler,
	}
}

// Descriptor is the model-facing description of a Function: everything a
// model needs to decide whether and how to invoke it, with the handler
// withheld. A nil Parameters map marks a function invoked without arguments.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Describe returns the model-facing descriptor for the function.
func (f *Function) Describe() Descriptor {
	d := Descriptor{Name: f.Name, Description: f.Description}
	if f.Schema != nil {
		d.Parameters = f.Schema.Definition()
	}
	return d
}
