package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/petrijr/nodeflux/pkg/api"
)

// echoNode upper-cases its text input.
type echoNode struct {
	calls int
}

func (n *echoNode) Descriptor() api.Descriptor {
	return api.Descriptor{ID: "echo", Name: "Echo", Description: "Upper-cases text", Type: api.NodeTypeProcess, Category: "test"}
}

func (n *echoNode) InputSchema() *api.Schema {
	return &api.Schema{Fields: []api.Field{
		{Name: "text", Type: api.FieldString, Required: true},
		{Name: "number", Type: api.FieldInteger, Default: 0},
	}}
}

func (n *echoNode) OutputSchema() *api.Schema {
	return &api.Schema{Fields: []api.Field{
		{Name: "processed", Type: api.FieldString, Required: true},
		{Name: "calls", Type: api.FieldInteger, Required: true},
	}}
}

func (n *echoNode) Execute(ctx context.Context, in api.Input) (api.Output, error) {
	n.calls++
	return api.Output{"processed": strings.ToUpper(in.String("text")), "calls": n.calls}, nil
}

// funcNode delegates every method to configurable closures.
type funcNode struct {
	id   string
	in   *api.Schema
	out  *api.Schema
	exec func(ctx context.Context, in api.Input) (api.Output, error)
}

func (n *funcNode) Descriptor() api.Descriptor {
	return api.Descriptor{ID: n.id, Name: n.id, Type: api.NodeTypeUtility}
}

func (n *funcNode) InputSchema() *api.Schema {
	if n.in == nil {
		return &api.Schema{}
	}
	return n.in
}

func (n *funcNode) OutputSchema() *api.Schema {
	if n.out == nil {
		return &api.Schema{Fields: []api.Field{{Name: "ok", Type: api.FieldBoolean}}}
	}
	return n.out
}

func (n *funcNode) Execute(ctx context.Context, in api.Input) (api.Output, error) {
	return n.exec(ctx, in)
}

// panickyDescriptorNode fails whenever its metadata is read.
type panickyDescriptorNode struct{}

func (panickyDescriptorNode) Descriptor() api.Descriptor { panic("descriptor exploded") }
func (panickyDescriptorNode) InputSchema() *api.Schema   { return &api.Schema{} }
func (panickyDescriptorNode) OutputSchema() *api.Schema  { return &api.Schema{} }
func (panickyDescriptorNode) Execute(context.Context, api.Input) (api.Output, error) {
	return api.Output{}, nil
}

// panickySchemaNode has a readable id but a schema accessor that panics.
type panickySchemaNode struct{}

func (panickySchemaNode) Descriptor() api.Descriptor {
	return api.Descriptor{ID: "panicky-schema", Type: api.NodeTypeUtility}
}
func (panickySchemaNode) InputSchema() *api.Schema  { panic("schema exploded") }
func (panickySchemaNode) OutputSchema() *api.Schema { return &api.Schema{} }
func (panickySchemaNode) Execute(context.Context, api.Input) (api.Output, error) {
	return api.Output{}, nil
}

var errBoom = errors.New("boom")

// recordingObserver records all calls from the engine so we can assert on them.
type recordingObserver struct {
	mu       sync.Mutex
	starts   []api.Call
	finishes []finishEvent
}

type finishEvent struct {
	Call     api.Call
	Result   api.Result
	Duration time.Duration
}

func (o *recordingObserver) OnNodeStart(ctx context.Context, call *api.Call) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.starts = append(o.starts, *call)
}

func (o *recordingObserver) OnNodeFinished(ctx context.Context, call *api.Call, res api.Result, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finishes = append(o.finishes, finishEvent{Call: *call, Result: res, Duration: d})
}
