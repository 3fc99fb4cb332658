package api

import (
	"context"
	"reflect"
)

// NodeType classifies what role a node plays in a workflow.
type NodeType string

const (
	NodeTypeInput   NodeType = "input"
	NodeTypeProcess NodeType = "process"
	NodeTypeOutput  NodeType = "output"
	NodeTypeUtility NodeType = "utility"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeInput, NodeTypeProcess, NodeTypeOutput, NodeTypeUtility:
		return true
	}
	return false
}

// Descriptor is the static identifying metadata of a node type.
type Descriptor struct {
	ID          string
	Name        string
	Description string
	Category    string
	Type        NodeType
}

// Output is the value produced by a node's Execute. The engine checks it
// against the node's output schema before it is returned to callers.
type Output map[string]any

// Node is the contract every pluggable computation unit implements.
//
// Descriptor, InputSchema and OutputSchema must be pure: no side effects and
// the same answer on every call. Execute receives input that already passed
// InputSchema validation and must either return an Output conforming to
// OutputSchema or an error describing the domain failure.
type Node interface {
	Descriptor() Descriptor
	InputSchema() *Schema
	OutputSchema() *Schema
	Execute(ctx context.Context, in Input) (Output, error)
}

// Factory produces a fresh node instance. Registries call it once per
// invocation so that no node observes state from an earlier call.
type Factory func() Node

// Prototype turns a ready-made node into a Factory.
//
// If n is a pointer to a struct, each call returns a shallow copy of the
// pointed-to value, so top-level fields written during one invocation are
// never seen by the next. Pointer fields (clients, caches) stay shared.
// Any other node value is returned as is.
func Prototype(n Node) Factory {
	v := reflect.ValueOf(n)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return func() Node { return n }
	}
	elem := v.Elem()
	return func() Node {
		fresh := reflect.New(elem.Type())
		fresh.Elem().Set(elem)
		return fresh.Interface().(Node)
	}
}
