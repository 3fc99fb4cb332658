package nodeflux

import (
	"github.com/petrijr/nodeflux/internal/engine"
	"github.com/petrijr/nodeflux/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Node        = api.Node
	Factory     = api.Factory
	Descriptor  = api.Descriptor
	NodeType    = api.NodeType
	Schema      = api.Schema
	Field       = api.Field
	FieldType   = api.FieldType
	Input       = api.Input
	Output      = api.Output
	Result      = api.Result
	Stage       = api.Stage
	NodeInfo    = api.NodeInfo
	Dispatcher  = api.Dispatcher
	FailureKind = api.FailureKind

	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver
)

// Re-export common helpers.

var (
	Prototype            = api.Prototype
	Fail                 = api.Fail
	Wrap                 = api.Wrap
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver

	ErrNodeNotFound     = api.ErrNodeNotFound
	ErrDuplicateNode    = api.ErrDuplicateNode
	ErrValidationFailed = api.ErrValidationFailed
	ErrExecutionFailed  = api.ErrExecutionFailed
	ErrOutputContract   = api.ErrOutputContract
)

const (
	NodeTypeInput   = api.NodeTypeInput
	NodeTypeProcess = api.NodeTypeProcess
	NodeTypeOutput  = api.NodeTypeOutput
	NodeTypeUtility = api.NodeTypeUtility

	FieldString  = api.FieldString
	FieldInteger = api.FieldInteger
	FieldNumber  = api.FieldNumber
	FieldBoolean = api.FieldBoolean
	FieldArray   = api.FieldArray
	FieldObject  = api.FieldObject

	FailureInvalidArgument = api.FailureInvalidArgument
	FailureNotFound        = api.FailureNotFound
	FailureUnavailable     = api.FailureUnavailable
	FailureInternal        = api.FailureInternal
)

// Dispatcher constructors.
// These wrap the internal/engine package so external callers
// never need to import internal packages.

// NewDispatcher returns a Dispatcher over the given factories, listed in
// the order given. Duplicate node ids are an error.
func NewDispatcher(factories ...Factory) (Dispatcher, error) {
	return NewDispatcherWithObserver(nil, factories...)
}

// NewDispatcherWithObserver is NewDispatcher with an Observer attached.
func NewDispatcherWithObserver(obs Observer, factories ...Factory) (Dispatcher, error) {
	reg, err := engine.NewRegistry(factories...)
	if err != nil {
		return nil, err
	}
	return engine.NewEngineWithConfig(engine.Config{Registry: reg, Observer: obs}), nil
}
