package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxNameLength is the longest workflow name, in characters.
const MaxNameLength = 200

var (
	// ErrWorkflowNotFound is returned when no workflow has the given id.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrInvalidWorkflow is returned for an empty or overlong name or for
	// data that is not valid JSON.
	ErrInvalidWorkflow = errors.New("invalid workflow")
)

// Workflow is a saved workflow definition. Data is the front end's graph
// document and is stored as given.
type Workflow struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// WorkflowStore handles storage of workflow definitions.
type WorkflowStore interface {
	CreateWorkflow(ctx context.Context, name string, data json.RawMessage) (*Workflow, error)
	GetWorkflow(ctx context.Context, id string) (*Workflow, error)
	UpdateWorkflow(ctx context.Context, id, name string, data json.RawMessage) (*Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error
	// ListWorkflows returns every workflow, most recently updated first.
	ListWorkflows(ctx context.Context) ([]*Workflow, error)
}

// Store is a WorkflowStore that owns a connection.
type Store interface {
	WorkflowStore
	io.Closer
}

// now is swapped by tests. Millisecond precision survives every backend.
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

var newID = uuid.NewString

func validate(name string, data json.RawMessage) (json.RawMessage, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidWorkflow)
	}
	if n := utf8.RuneCountInString(name); n > MaxNameLength {
		return nil, fmt.Errorf("%w: name has %d characters, at most %d allowed", ErrInvalidWorkflow, n, MaxNameLength)
	}
	if len(data) == 0 {
		return json.RawMessage(`{}`), nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: data is not valid JSON", ErrInvalidWorkflow)
	}
	return append(json.RawMessage(nil), data...), nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
