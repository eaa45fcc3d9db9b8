// Package memory contains concrete Memory implementations. The Memory
// interface and message types reside in the core package. Import
// github.com/promptmesh/promptmesh/core and depend on core.Memory in your
// code; select an implementation (like the in-memory list below, or the
// SQLite-backed store in the sqlite subpackage) at wiring time. Store keeps
// several conversations side by side for processes serving more than one.
//
// Rationale: keeps domain contracts centralized while allowing pluggable
// backends (databases, caches, remote stores, etc.) to be added without
// introducing dependency cycles.
package memory
