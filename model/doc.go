// Package model defines the provider‑agnostic abstraction for text
// generation inside PromptMesh.
//
// Core goals:
//   - Unify streaming + non‑streaming generation behind a single interface
//   - Keep conversation state handling (memory reads/writes) inside backends
//   - Normalize the function calling loop so higher layers stay vendor free
//   - Facilitate deterministic mocking for tests (Mock)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so the prompt layer remains decoupled from vendor SDKs.
package model
