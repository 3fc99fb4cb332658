package api

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

// Dispatcher is the boundary consumed by transports.
type Dispatcher interface {
	// Execute resolves nodeID, validates payload against the node's input
	// schema, runs the node once and wraps the outcome. It never returns an
	// error or panics; every failure is reported through the Result.
	Execute(ctx context.Context, nodeID string, payload map[string]any) Result

	// ListNodes describes every catalogued node in catalogue order. A node
	// whose metadata cannot be derived is reported as an error entry.
	ListNodes(ctx context.Context) []NodeInfo
}

// NodeInfo is the introspection record for one catalogued node. Error
// entries carry only ID and Error.
type NodeInfo struct {
	ID          string             `json:"id"`
	Name        string             `json:"name,omitempty"`
	Description string             `json:"description,omitempty"`
	Type        NodeType           `json:"type,omitempty"`
	Category    string             `json:"category,omitempty"`
	Inputs      *jsonschema.Schema `json:"inputs,omitempty"`
	Outputs     *jsonschema.Schema `json:"outputs,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// UnknownNodeID is reported for catalogue entries whose id cannot be read.
const UnknownNodeID = "unknown"

// Describe builds the NodeInfo of n. It returns an error when either
// schema cannot be derived; panics are left to the caller.
func Describe(n Node) (NodeInfo, error) {
	d := n.Descriptor()
	in, err := n.InputSchema().JSONSchema()
	if err != nil {
		return NodeInfo{}, err
	}
	out, err := n.OutputSchema().JSONSchema()
	if err != nil {
		return NodeInfo{}, err
	}
	return NodeInfo{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Type:        d.Type,
		Category:    d.Category,
		Inputs:      in,
		Outputs:     out,
	}, nil
}
