// Package api contains the core building blocks of the nodeflux node
// framework: the node contract, input/output schemas, the result envelope
// and the observer hooks used by the engine.
//
// Most users interact with the higher-level nodeflux package, which
// re-exports selected types and helpers from this package. The api package
// is intended for node authors and for transports built on top of the
// engine.
//
// # Nodes
//
// A node is a single, independently implemented unit of computation. It
// describes itself through a Descriptor and a pair of Schemas, and does its
// work in Execute:
//
//	type Node interface {
//	    Descriptor() Descriptor
//	    InputSchema() *Schema
//	    OutputSchema() *Schema
//	    Execute(ctx context.Context, in Input) (Output, error)
//	}
//
// Execute only ever sees an Input produced by Schema.Validate, so it should
// apply domain logic rather than re-check primitive shapes. Domain failures
// are returned as errors, preferably built with Fail or Wrap so that logs
// and metrics can tell an upstream outage from a missing record.
//
// # Schemas
//
// A Schema is an ordered list of Fields. The same definition is used to
// validate incoming payloads, to check what a node returns, and to derive
// the JSON Schema document front ends use to render forms.
//
// Validation collects every violation in one pass. Each Violation names the
// field and whether it was missing, of the wrong type, or outside a
// constraint.
//
// # Results
//
// Every dispatch produces a Result. Success results carry the node outputs;
// failure results carry a human-readable message and the Stage that
// produced them, which transports map onto their own status codes.
//
// # Observability
//
// The Observer interface receives one start and one finish callback per
// dispatch. LoggingObserver, BasicMetrics and CompositeObserver are
// provided; see internal/metrics for the Prometheus observer.
package api
