package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/petrijr/nodeflux/pkg/api"
	"github.com/stretchr/testify/require"
)

func newObservedEngine(t *testing.T, obs api.Observer, factories ...api.Factory) api.Dispatcher {
	t.Helper()
	reg, err := NewRegistry(factories...)
	require.NoError(t, err)
	return NewEngineWithConfig(Config{Registry: reg, Observer: obs})
}

func TestObserverSeesSuccessfulCall(t *testing.T) {
	obs := &recordingObserver{}
	eng := newObservedEngine(t, obs, api.Prototype(&echoNode{}))

	res := eng.Execute(context.Background(), "echo", map[string]any{"text": "x"})
	require.True(t, res.Success)

	require.Len(t, obs.starts, 1)
	require.Len(t, obs.finishes, 1)

	start := obs.starts[0]
	require.Equal(t, "echo", start.NodeID)
	require.Equal(t, "Echo", start.Descriptor.Name)
	_, err := uuid.Parse(start.ID)
	require.NoError(t, err, "call id should be a uuid")

	fin := obs.finishes[0]
	require.Equal(t, start.ID, fin.Call.ID)
	require.Equal(t, api.StageSucceeded, fin.Result.Stage)
	require.GreaterOrEqual(t, fin.Duration.Nanoseconds(), int64(0))
}

func TestObserverSkipsStartForUnknownNode(t *testing.T) {
	obs := &recordingObserver{}
	eng := newObservedEngine(t, obs, api.Prototype(&echoNode{}))

	eng.Execute(context.Background(), "missing", nil)

	require.Empty(t, obs.starts)
	require.Len(t, obs.finishes, 1)
	require.Equal(t, api.StageNotFound, obs.finishes[0].Result.Stage)
	require.Equal(t, "missing", obs.finishes[0].Call.NodeID)
}

func TestObserverReceivesFailureKind(t *testing.T) {
	obs := &recordingObserver{}
	eng := newObservedEngine(t, obs, api.Prototype(&funcNode{
		id: "lookup",
		exec: func(ctx context.Context, in api.Input) (api.Output, error) {
			return nil, api.Fail(api.FailureNotFound, "no such stock %q", "ACME")
		},
	}))

	eng.Execute(context.Background(), "lookup", nil)

	require.Len(t, obs.finishes, 1)
	res := obs.finishes[0].Result
	require.Equal(t, api.StageExecutionFailed, res.Stage)
	require.Equal(t, api.FailureNotFound, res.Kind)
	require.Equal(t, `Execution error: no such stock "ACME"`, res.Error)
}

func TestBasicMetricsCountsStages(t *testing.T) {
	metrics := &api.BasicMetrics{}
	eng := newObservedEngine(t, api.NewCompositeObserver(metrics, api.NoopObserver{}),
		api.Prototype(&echoNode{}),
		api.Prototype(&funcNode{
			id: "fails",
			exec: func(ctx context.Context, in api.Input) (api.Output, error) {
				return nil, errBoom
			},
		}),
		api.Prototype(&funcNode{
			id: "bad-output",
			exec: func(ctx context.Context, in api.Input) (api.Output, error) {
				return api.Output{"nope": 1}, nil
			},
		}),
	)

	ctx := context.Background()
	eng.Execute(ctx, "echo", map[string]any{"text": "ok"})
	eng.Execute(ctx, "echo", map[string]any{"text": "ok"})
	eng.Execute(ctx, "echo", map[string]any{})
	eng.Execute(ctx, "fails", nil)
	eng.Execute(ctx, "bad-output", nil)
	eng.Execute(ctx, "ghost", nil)

	snap := metrics.Snapshot()
	require.Equal(t, api.BasicMetricsSnapshot{
		Started:          5,
		Succeeded:        2,
		NotFound:         1,
		ValidationFailed: 1,
		ExecutionFailed:  1,
		OutputMismatch:   1,
		AvgDuration:      snap.AvgDuration,
	}, snap)
}
