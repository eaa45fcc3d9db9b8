// Package core provides the foundational domain types and contracts used by
// PromptMesh. It defines the core abstractions for:
//
//   - Messages (immutable tagged conversation turns)
//   - Functions (named, schema-described capabilities a model may invoke)
//   - Schemas (model-facing parameter definitions with validation)
//   - Memory (ordered conversation log abstraction with pluggable backends)
//
// The package intentionally keeps implementation concerns (persistence, model
// wire protocols, hook orchestration) out of scope, exposing small interfaces
// to enable custom backends and extensions. All exported identifiers include
// concise documentation to aid discoverability and external consumption.
package core
