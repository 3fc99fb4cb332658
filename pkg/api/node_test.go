package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type counterNode struct {
	count  int
	shared *[]string
}

func (n *counterNode) Descriptor() Descriptor {
	return Descriptor{ID: "counter", Name: "Counter", Type: NodeTypeUtility}
}
func (n *counterNode) InputSchema() *Schema  { return &Schema{} }
func (n *counterNode) OutputSchema() *Schema { return &Schema{} }
func (n *counterNode) Execute(ctx context.Context, in Input) (Output, error) {
	n.count++
	return Output{}, nil
}

type valueNode struct{ id string }

func (n valueNode) Descriptor() Descriptor { return Descriptor{ID: n.id} }
func (valueNode) InputSchema() *Schema     { return &Schema{} }
func (valueNode) OutputSchema() *Schema    { return &Schema{} }
func (valueNode) Execute(ctx context.Context, in Input) (Output, error) {
	return Output{}, nil
}

func TestPrototypeCopiesPointerStructs(t *testing.T) {
	shared := []string{"x"}
	proto := &counterNode{count: 1, shared: &shared}
	f := Prototype(proto)

	a := f().(*counterNode)
	b := f().(*counterNode)

	require.NotSame(t, proto, a)
	require.NotSame(t, a, b)

	_, err := a.Execute(context.Background(), Input{})
	require.NoError(t, err)
	require.Equal(t, 2, a.count)
	require.Equal(t, 1, b.count)
	require.Equal(t, 1, proto.count)

	// Pointer fields remain shared.
	require.Same(t, a.shared, b.shared)
}

func TestPrototypeReturnsValueNodesAsIs(t *testing.T) {
	f := Prototype(valueNode{id: "v"})
	require.Equal(t, "v", f().Descriptor().ID)
}

func TestNodeTypeValid(t *testing.T) {
	for _, nt := range []NodeType{NodeTypeInput, NodeTypeProcess, NodeTypeOutput, NodeTypeUtility} {
		require.True(t, nt.Valid(), nt)
	}
	require.False(t, NodeType("sink").Valid())
}

func TestDescribe(t *testing.T) {
	info, err := Describe(&counterNode{})
	require.NoError(t, err)
	require.Equal(t, "counter", info.ID)
	require.Equal(t, NodeTypeUtility, info.Type)
	require.Equal(t, "object", info.Inputs.Type)
	require.Empty(t, info.Error)
}
