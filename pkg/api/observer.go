package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Call identifies a single dispatch.
type Call struct {
	// ID is unique per invocation.
	ID string
	// NodeID is the identifier the caller asked for.
	NodeID string
	// Descriptor is zero when NodeID did not resolve.
	Descriptor Descriptor
}

// Observer receives callbacks from the engine for logging and metrics.
//
// Implementations should be fast and non-blocking; they run inline with
// every dispatch.
type Observer interface {
	// OnNodeStart is called once a node has been resolved, before its input
	// is validated. It is not called for unknown node ids.
	OnNodeStart(ctx context.Context, call *Call)

	// OnNodeFinished is called exactly once per dispatch with the envelope
	// returned to the caller.
	OnNodeFinished(ctx context.Context, call *Call, res Result, duration time.Duration)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnNodeStart(ctx context.Context, call *Call) {}
func (NoopObserver) OnNodeFinished(ctx context.Context, call *Call, res Result, d time.Duration) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnNodeStart(ctx context.Context, call *Call) {
	for _, o := range c.observers {
		o.OnNodeStart(ctx, call)
	}
}

func (c *CompositeObserver) OnNodeFinished(ctx context.Context, call *Call, res Result, d time.Duration) {
	for _, o := range c.observers {
		o.OnNodeFinished(ctx, call, res, d)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs node lifecycle events
// using the provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnNodeStart(ctx context.Context, call *Call) {
	o.Logger.DebugContext(ctx, "node_start",
		slog.String("node", call.NodeID),
		slog.String("call_id", call.ID),
	)
}

func (o *LoggingObserver) OnNodeFinished(ctx context.Context, call *Call, res Result, d time.Duration) {
	attrs := []slog.Attr{
		slog.String("node", call.NodeID),
		slog.String("call_id", call.ID),
		slog.String("stage", string(res.Stage)),
		slog.Duration("duration", d),
	}

	level := slog.LevelInfo
	switch res.Stage {
	case StageNotFound, StageValidationFailed:
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error", res.Error))
	case StageExecutionFailed:
		level = slog.LevelError
		attrs = append(attrs,
			slog.String("error", res.Error),
			slog.String("failure_kind", string(res.Kind)),
		)
	case StageOutputMismatch:
		// A node broke its own contract; flag it apart from upstream failures.
		level = slog.LevelError
		attrs = append(attrs,
			slog.String("error", res.Error),
			slog.Bool("node_defect", true),
		)
	}
	o.Logger.LogAttrs(ctx, level, "node_finished", attrs...)
}

// BasicMetrics collects simple counters and aggregate execution durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	started          atomic.Int64
	succeeded        atomic.Int64
	notFound         atomic.Int64
	validationFailed atomic.Int64
	executionFailed  atomic.Int64
	outputMismatch   atomic.Int64
	totalDuration    atomic.Int64 // nanoseconds, successful executions only
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	Started          int64
	Succeeded        int64
	NotFound         int64
	ValidationFailed int64
	ExecutionFailed  int64
	OutputMismatch   int64

	AvgDuration time.Duration
}

func (m *BasicMetrics) OnNodeStart(ctx context.Context, call *Call) {
	m.started.Add(1)
}

func (m *BasicMetrics) OnNodeFinished(ctx context.Context, call *Call, res Result, d time.Duration) {
	switch res.Stage {
	case StageSucceeded:
		m.succeeded.Add(1)
		m.totalDuration.Add(d.Nanoseconds())
	case StageNotFound:
		m.notFound.Add(1)
	case StageValidationFailed:
		m.validationFailed.Add(1)
	case StageOutputMismatch:
		m.outputMismatch.Add(1)
	default:
		m.executionFailed.Add(1)
	}
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	succeeded := m.succeeded.Load()
	totalNs := m.totalDuration.Load()

	var avg time.Duration
	if succeeded > 0 {
		avg = time.Duration(totalNs / succeeded)
	}

	return BasicMetricsSnapshot{
		Started:          m.started.Load(),
		Succeeded:        succeeded,
		NotFound:         m.notFound.Load(),
		ValidationFailed: m.validationFailed.Load(),
		ExecutionFailed:  m.executionFailed.Load(),
		OutputMismatch:   m.outputMismatch.Load(),
		AvgDuration:      avg,
	}
}
