package persistence

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// StoreSuite runs the same behavioural checks against every backend.
type StoreSuite struct {
	suite.Suite
	newStore func(t *testing.T) WorkflowStore

	store WorkflowStore
	ctx   context.Context
	clock *fakeClock
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	prev := now
	now = s.clock.now
	s.T().Cleanup(func() { now = prev })
	s.store = s.newStore(s.T())
}

func (s *StoreSuite) TestCreateAndGet() {
	data := json.RawMessage(`{"nodes":[{"id":"a","type":"test_node"}],"edges":[]}`)

	created, err := s.store.CreateWorkflow(s.ctx, "내 워크플로", data)
	s.Require().NoError(err)
	s.NotEmpty(created.ID)
	s.Equal("내 워크플로", created.Name)
	s.JSONEq(string(data), string(created.Data))
	s.Equal(created.CreatedAt, created.UpdatedAt)

	got, err := s.store.GetWorkflow(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)
	s.Equal(created.Name, got.Name)
	s.JSONEq(string(data), string(got.Data))
	s.True(created.CreatedAt.Equal(got.CreatedAt))
	s.True(created.UpdatedAt.Equal(got.UpdatedAt))
}

func (s *StoreSuite) TestEmptyDataBecomesObject() {
	created, err := s.store.CreateWorkflow(s.ctx, "blank", nil)
	s.Require().NoError(err)
	s.JSONEq(`{}`, string(created.Data))
}

func (s *StoreSuite) TestInvalidWorkflows() {
	_, err := s.store.CreateWorkflow(s.ctx, "  ", json.RawMessage(`{}`))
	s.ErrorIs(err, ErrInvalidWorkflow)

	_, err = s.store.CreateWorkflow(s.ctx, strings.Repeat("가", MaxNameLength+1), json.RawMessage(`{}`))
	s.ErrorIs(err, ErrInvalidWorkflow)

	_, err = s.store.CreateWorkflow(s.ctx, "broken", json.RawMessage(`{"nodes":`))
	s.ErrorIs(err, ErrInvalidWorkflow)

	_, err = s.store.CreateWorkflow(s.ctx, strings.Repeat("가", MaxNameLength), json.RawMessage(`[]`))
	s.NoError(err)
}

func (s *StoreSuite) TestUpdate() {
	created, err := s.store.CreateWorkflow(s.ctx, "first", json.RawMessage(`{"v":1}`))
	s.Require().NoError(err)

	updated, err := s.store.UpdateWorkflow(s.ctx, created.ID, "second", json.RawMessage(`{"v":2}`))
	s.Require().NoError(err)
	s.Equal(created.ID, updated.ID)
	s.Equal("second", updated.Name)
	s.JSONEq(`{"v":2}`, string(updated.Data))
	s.True(created.CreatedAt.Equal(updated.CreatedAt))
	s.True(updated.UpdatedAt.After(created.UpdatedAt))

	got, err := s.store.GetWorkflow(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("second", got.Name)

	_, err = s.store.UpdateWorkflow(s.ctx, created.ID, "", json.RawMessage(`{}`))
	s.ErrorIs(err, ErrInvalidWorkflow)
}

func (s *StoreSuite) TestMissingWorkflow() {
	_, err := s.store.GetWorkflow(s.ctx, "does-not-exist")
	s.ErrorIs(err, ErrWorkflowNotFound)

	_, err = s.store.UpdateWorkflow(s.ctx, "does-not-exist", "x", json.RawMessage(`{}`))
	s.ErrorIs(err, ErrWorkflowNotFound)

	s.ErrorIs(s.store.DeleteWorkflow(s.ctx, "does-not-exist"), ErrWorkflowNotFound)
}

func (s *StoreSuite) TestDelete() {
	created, err := s.store.CreateWorkflow(s.ctx, "doomed", json.RawMessage(`{}`))
	s.Require().NoError(err)

	s.Require().NoError(s.store.DeleteWorkflow(s.ctx, created.ID))

	_, err = s.store.GetWorkflow(s.ctx, created.ID)
	s.ErrorIs(err, ErrWorkflowNotFound)
	s.ErrorIs(s.store.DeleteWorkflow(s.ctx, created.ID), ErrWorkflowNotFound)

	all, err := s.store.ListWorkflows(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *StoreSuite) TestListNewestUpdatedFirst() {
	empty, err := s.store.ListWorkflows(s.ctx)
	s.Require().NoError(err)
	s.NotNil(empty)
	s.Empty(empty)

	a, err := s.store.CreateWorkflow(s.ctx, "a", json.RawMessage(`{}`))
	s.Require().NoError(err)
	b, err := s.store.CreateWorkflow(s.ctx, "b", json.RawMessage(`{}`))
	s.Require().NoError(err)
	c, err := s.store.CreateWorkflow(s.ctx, "c", json.RawMessage(`{}`))
	s.Require().NoError(err)

	_, err = s.store.UpdateWorkflow(s.ctx, a.ID, "a2", json.RawMessage(`{}`))
	s.Require().NoError(err)

	all, err := s.store.ListWorkflows(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]string{a.ID, c.ID, b.ID}, []string{all[0].ID, all[1].ID, all[2].ID})
	s.Equal("a2", all[0].Name)
}
