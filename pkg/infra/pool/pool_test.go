package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, capacity int) *Pool {
	t.Helper()
	p, err := New("test", &Config{Capacity: capacity, ExpiryDuration: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Release(time.Second) })
	return p
}

func TestNewRejectsZeroCapacity(t *testing.T) {
	_, err := New("bad", &Config{Capacity: 0})
	assert.Error(t, err)
}

func TestRunExecutesEveryTask(t *testing.T) {
	p := newTestPool(t, 3)
	assert.Equal(t, 3, p.Cap())

	results := make([]int, 20)
	err := p.Run(context.Background(), len(results), func(_ context.Context, i int) error {
		results[i] = i * i
		return nil
	})
	require.NoError(t, err)
	for i, v := range results {
		assert.Equal(t, i*i, v)
	}
	assert.Equal(t, int64(20), p.Stats().Submitted)
}

func TestRunBoundsConcurrency(t *testing.T) {
	p := newTestPool(t, 2)

	var running, peak atomic.Int32
	err := p.Run(context.Background(), 10, func(context.Context, int) error {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunReturnsFirstError(t *testing.T) {
	p := newTestPool(t, 1)
	boom := errors.New("boom")

	var after atomic.Int32
	err := p.Run(context.Background(), 10, func(_ context.Context, i int) error {
		if i == 2 {
			return boom
		}
		if i > 2 {
			after.Add(1)
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	// 容量为 1 时任务按顺序执行，出错后的任务不再运行
	assert.Zero(t, after.Load())
}

func TestRunRecoversPanic(t *testing.T) {
	p := newTestPool(t, 2)

	err := p.Run(context.Background(), 3, func(_ context.Context, i int) error {
		if i == 1 {
			panic("kaboom")
		}
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Equal(t, int64(1), p.Stats().Panics)
}

func TestRunHonoursCancelledContext(t *testing.T) {
	p := newTestPool(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	err := p.Run(ctx, 5, func(context.Context, int) error {
		calls.Add(1)
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}

func TestSubmitAfterRelease(t *testing.T) {
	p, err := New("closed", DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, p.Release(time.Second))

	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)
	assert.ErrorIs(t, p.Run(context.Background(), 1, func(context.Context, int) error { return nil }), ErrPoolClosed)
}
