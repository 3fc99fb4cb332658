package persistence

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"sync"
)

// InMemoryStore is a simple, goroutine-safe implementation of
// WorkflowStore backed by a map. Callers receive copies.
type InMemoryStore struct {
	mu        sync.RWMutex
	workflows map[string]*Workflow
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		workflows: make(map[string]*Workflow),
	}
}

var _ Store = (*InMemoryStore)(nil)

func (s *InMemoryStore) CreateWorkflow(_ context.Context, name string, data json.RawMessage) (*Workflow, error) {
	data, err := validate(name, data)
	if err != nil {
		return nil, err
	}
	ts := now()
	wf := &Workflow{ID: newID(), Name: name, Data: data, CreatedAt: ts, UpdatedAt: ts}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.workflows[wf.ID] = wf
	return cloneWorkflow(wf), nil
}

func (s *InMemoryStore) GetWorkflow(_ context.Context, id string) (*Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wf, ok := s.workflows[id]
	if !ok {
		return nil, ErrWorkflowNotFound
	}
	return cloneWorkflow(wf), nil
}

func (s *InMemoryStore) UpdateWorkflow(_ context.Context, id, name string, data json.RawMessage) (*Workflow, error) {
	data, err := validate(name, data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wf, ok := s.workflows[id]
	if !ok {
		return nil, ErrWorkflowNotFound
	}
	updated := &Workflow{ID: id, Name: name, Data: data, CreatedAt: wf.CreatedAt, UpdatedAt: now()}
	s.workflows[id] = updated
	return cloneWorkflow(updated), nil
}

func (s *InMemoryStore) DeleteWorkflow(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workflows[id]; !ok {
		return ErrWorkflowNotFound
	}
	delete(s.workflows, id)
	return nil
}

func (s *InMemoryStore) ListWorkflows(context.Context) ([]*Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Workflow, 0, len(s.workflows))
	for _, wf := range s.workflows {
		result = append(result, cloneWorkflow(wf))
	}
	sortNewestFirst(result)
	return result, nil
}

func (s *InMemoryStore) Close() error { return nil }

func cloneWorkflow(wf *Workflow) *Workflow {
	cp := *wf
	cp.Data = append(json.RawMessage(nil), wf.Data...)
	return &cp
}

func sortNewestFirst(wfs []*Workflow) {
	slices.SortStableFunc(wfs, func(a, b *Workflow) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
