package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/petrijr/nodeflux/pkg/api"
)

// engineImpl is a synchronous, in-process dispatcher. It holds no mutable
// state besides the observer, so calls may run concurrently.
type engineImpl struct {
	registry *Registry
	observer api.Observer
	newID    func() string
}

// Config describes how to construct an engineImpl.
type Config struct {
	Registry *Registry
	Observer api.Observer

	// NewCallID overrides the call id generator. Defaults to uuid.NewString.
	NewCallID func() string
}

// NewEngine wraps a registry with no observer.
func NewEngine(reg *Registry) api.Dispatcher {
	return NewEngineWithConfig(Config{Registry: reg})
}

func NewEngineWithConfig(cfg Config) api.Dispatcher {
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	reg := cfg.Registry
	if reg == nil {
		reg, _ = NewRegistry()
	}
	newID := cfg.NewCallID
	if newID == nil {
		newID = uuid.NewString
	}
	return &engineImpl{
		registry: reg,
		observer: obs,
		newID:    newID,
	}
}

var _ api.Dispatcher = (*engineImpl)(nil)

func (e *engineImpl) Execute(ctx context.Context, nodeID string, payload map[string]any) api.Result {
	call := &api.Call{ID: e.newID(), NodeID: nodeID}
	start := time.Now()

	node, err := e.registry.Lookup(nodeID)
	if err != nil {
		var res api.Result
		if errors.Is(err, api.ErrNodeNotFound) {
			res = api.NewFailureResult(api.StageNotFound, fmt.Sprintf("Node '%s' not found", nodeID))
		} else {
			res = executionFailure(err)
			res.Kind = api.FailureInternal
		}
		e.observer.OnNodeFinished(ctx, call, res, time.Since(start))
		return res
	}

	if d, ok := describe(node); ok {
		call.Descriptor = d
	}
	e.observer.OnNodeStart(ctx, call)

	if payload == nil {
		payload = map[string]any{}
	}
	res := runPipeline(ctx, node, payload)

	e.observer.OnNodeFinished(ctx, call, res, time.Since(start))
	return res
}

// describe reads a descriptor without letting a panic escape.
func describe(n api.Node) (d api.Descriptor, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return n.Descriptor(), true
}

func (e *engineImpl) ListNodes(ctx context.Context) []api.NodeInfo {
	out := make([]api.NodeInfo, 0, e.registry.Len())
	for _, entry := range e.registry.entries {
		if entry.broken != nil {
			out = append(out, loadFailure(entry.id, entry.broken))
			continue
		}
		out = append(out, e.nodeInfo(entry))
	}
	return out
}

func (e *engineImpl) nodeInfo(entry registryEntry) (info api.NodeInfo) {
	defer func() {
		if rec := recover(); rec != nil {
			info = loadFailure(entry.id, fmt.Errorf("panic: %v", rec))
		}
	}()

	node := entry.factory()
	if node == nil {
		return loadFailure(entry.id, fmt.Errorf("factory returned nil node"))
	}
	info, err := api.Describe(node)
	if err != nil {
		return loadFailure(entry.id, err)
	}
	return info
}

func loadFailure(id string, err error) api.NodeInfo {
	if id == "" {
		id = api.UnknownNodeID
	}
	return api.NodeInfo{ID: id, Error: "failed to load node info: " + err.Error()}
}
