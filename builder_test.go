package nodeflux

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type reverseNode struct {
	calls int
}

func (*reverseNode) Descriptor() Descriptor {
	return Descriptor{ID: "reverse", Name: "Reverse", Type: NodeTypeProcess, Category: "text"}
}

func (*reverseNode) InputSchema() *Schema {
	return &Schema{Fields: []Field{{Name: "text", Type: FieldString, Required: true}}}
}

func (*reverseNode) OutputSchema() *Schema {
	return &Schema{Fields: []Field{
		{Name: "reversed", Type: FieldString, Required: true},
		{Name: "calls", Type: FieldInteger, Required: true},
	}}
}

func (n *reverseNode) Execute(ctx context.Context, in Input) (Output, error) {
	n.calls++
	r := []rune(in.String("text"))
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return Output{"reversed": string(r), "calls": n.calls}, nil
}

func TestCatalogBuilder(t *testing.T) {
	metrics := &BasicMetrics{}
	d := NewCatalog().
		AddNode(&reverseNode{}).
		Observe(metrics).
		MustBuild()

	ctx := context.Background()
	res := d.Execute(ctx, "reverse", map[string]any{"text": "안녕하세요"})
	require.True(t, res.Success, res.Error)
	require.Equal(t, "요세하녕안", res.Outputs["reversed"])

	// Every call sees a fresh copy of the node.
	res = d.Execute(ctx, "reverse", map[string]any{"text": "ab"})
	require.Equal(t, 1, res.Outputs["calls"])

	infos := d.ListNodes(ctx)
	require.Len(t, infos, 1)
	require.Equal(t, "Reverse", infos[0].Name)

	snap := metrics.Snapshot()
	require.EqualValues(t, 2, snap.Succeeded)
}

func TestCatalogBuilderErrors(t *testing.T) {
	_, err := NewCatalog().AddNode(nil).Build()
	require.ErrorContains(t, err, "node 0 is nil")

	_, err = NewCatalog().Add(Prototype(&reverseNode{}), nil).Build()
	require.ErrorContains(t, err, "factory 1 is nil")

	_, err = NewCatalog().AddNode(&reverseNode{}).Add(nil, Prototype(&reverseNode{}), nil).Build()
	require.ErrorContains(t, err, "factory 1 is nil")

	_, err = NewCatalog().AddNode(&reverseNode{}).AddNode(&reverseNode{}).Build()
	require.True(t, errors.Is(err, ErrDuplicateNode))

	require.Panics(t, func() {
		NewCatalog().AddNode(&reverseNode{}).AddNode(&reverseNode{}).MustBuild()
	})
}

func TestNewDispatcherUnknownNode(t *testing.T) {
	d, err := NewDispatcher()
	require.NoError(t, err)

	res := d.Execute(context.Background(), "nope", nil)
	require.False(t, res.Success)
	require.Equal(t, "Node 'nope' not found", res.Error)
	require.ErrorIs(t, res.Err(), ErrNodeNotFound)
}
