// Package nodeflux hosts self-describing processing nodes for a visual
// workflow editor.
//
// A node declares the shape of the data it accepts and produces, so a front
// end can render forms and validate input without per-node knowledge, and
// executes on demand against caller-supplied data. The package is a small
// facade over pkg/api (the node contract) and internal/engine (the
// dispatcher); the cmd/nodeflux binary serves a catalogue over HTTP and MCP.
//
// # Nodes
//
// A Node has four methods:
//
//	Descriptor() Descriptor      // id, display name, type, category
//	InputSchema() *Schema        // declared input fields
//	OutputSchema() *Schema       // declared output fields
//	Execute(ctx, Input) (Output, error)
//
// Schemas are lists of typed fields with defaults and bounds. They are used
// both to validate payloads before Execute runs and to derive the JSON
// Schema documents the editor renders.
//
// Execute only ever sees validated input. A domain failure is reported by
// returning an error, usually built with Fail or Wrap so that it carries a
// FailureKind for logs and metrics.
//
// # Dispatching
//
// A Dispatcher resolves a node id, validates the payload, runs the node once
// and wraps the outcome in a Result envelope:
//
//	{"success": true, "outputs": {...}}
//	{"success": false, "error": "..."}
//
// Execute never returns an error and never panics. Result.Stage tells
// transports which pipeline stage produced the envelope (not_found,
// validation_failed, execution_failed, output_mismatch or succeeded).
//
// Catalogues are assembled with CatalogBuilder:
//
//	d := nodeflux.NewCatalog().
//	    AddNode(&ReverseNode{}).
//	    Observe(nodeflux.NewLoggingObserver(nil)).
//	    MustBuild()
//
//	res := d.Execute(ctx, "reverse", map[string]any{"text": "abc"})
//
// Every invocation works on a fresh copy of the node, so nodes may keep
// per-call state in their fields. Shared collaborators (HTTP clients, lazily
// loaded tables) live behind pointer fields and are shared by all copies.
//
// # Observers
//
// Observers receive a callback when a resolved node starts and one when
// every dispatch finishes. LoggingObserver writes structured slog records,
// BasicMetrics keeps in-process counters, and CompositeObserver fans out to
// several observers.
//
// For a runnable custom node, see examples/custom_node.
package nodeflux
