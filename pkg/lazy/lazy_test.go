package lazy

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestValueLoadsOnce(t *testing.T) {
	var calls atomic.Int32
	v := New(func(ctx context.Context) (map[string]string, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return map[string]string{"삼성전자": "005930"}, nil
	})

	var g errgroup.Group
	for range 32 {
		g.Go(func() error {
			m, err := v.Get(context.Background())
			if err != nil {
				return err
			}
			if m["삼성전자"] != "005930" {
				return errors.New("unexpected table contents")
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, int32(1), calls.Load())
	require.True(t, v.Loaded())
}

func TestValueDoesNotCacheFailures(t *testing.T) {
	var calls atomic.Int32
	v := New(func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 0, errors.New("file not ready")
		}
		return 42, nil
	})

	_, err := v.Get(context.Background())
	require.EqualError(t, err, "file not ready")
	require.False(t, v.Loaded())

	got, err := v.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, got)

	got, err = v.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, got)
	require.Equal(t, int32(2), calls.Load())
}

func TestOfIsPreloaded(t *testing.T) {
	v := Of("fixture")
	require.True(t, v.Loaded())

	got, err := v.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "fixture", got)
}

func TestResetForcesReload(t *testing.T) {
	var calls atomic.Int32
	v := New(func(ctx context.Context) (int32, error) {
		return calls.Add(1), nil
	})

	first, err := v.Get(context.Background())
	require.NoError(t, err)
	v.Reset()
	second, err := v.Get(context.Background())
	require.NoError(t, err)

	require.Equal(t, int32(1), first)
	require.Equal(t, int32(2), second)
}

func TestZeroValueWithoutLoader(t *testing.T) {
	var v Value[int]
	_, err := v.Get(context.Background())
	require.Error(t, err)

	v.Reset()
	_, err = Of(1).Get(context.Background())
	require.NoError(t, err)
}
