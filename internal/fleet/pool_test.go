package fleet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestMapPreservesOrder(t *testing.T) {
	pool := NewPool(4, testLogger())
	ids := []int{53807, 61045, 61046, 61047, 61048, 61049, 67232}

	results := Map(context.Background(), pool, ids, func(_ context.Context, id int) (string, error) {
		// Later ids finish first.
		time.Sleep(time.Duration(70000-id) * time.Microsecond / 100)
		return fmt.Sprintf("sat-%d", id), nil
	})

	require.Len(t, results, len(ids))
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.NoError(t, r.Err)
		assert.Equal(t, fmt.Sprintf("sat-%d", ids[i]), r.Value)
	}
}

func TestMapFailureIsolated(t *testing.T) {
	pool := NewPool(2, testLogger())
	boom := errors.New("propagation failed")

	results := Map(context.Background(), pool, []int{1, 2, 3, 4}, func(_ context.Context, n int) (int, error) {
		switch n {
		case 2:
			return 0, boom
		case 3:
			panic("corrupt elements")
		}
		return n * 10, nil
	})

	assert.Equal(t, 10, results[0].Value)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.ErrorContains(t, results[2].Err, "panicked")
	assert.Equal(t, 40, results[3].Value)
	assert.NoError(t, results[3].Err)
}

func TestMapBoundedConcurrency(t *testing.T) {
	pool := NewPool(3, testLogger())
	var running, peak atomic.Int32

	Map(context.Background(), pool, make([]struct{}, 30), func(context.Context, struct{}) (struct{}, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
		return struct{}{}, nil
	})

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Positive(t, peak.Load())
}

func TestMapCancelled(t *testing.T) {
	pool := NewPool(2, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	results := Map(ctx, pool, make([]int, 100), func(ctx context.Context, _ int) (int, error) {
		calls.Add(1)
		return 0, ctx.Err()
	})

	require.Len(t, results, 100)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.Less(t, int(calls.Load()), 100, "cancelled context should stop feeding jobs")
}

func TestMapEmpty(t *testing.T) {
	results := Map(context.Background(), NewPool(0, testLogger()), nil, func(context.Context, int) (int, error) {
		t.Fatal("fn called for empty input")
		return 0, nil
	})
	assert.Empty(t, results)
}

func TestNewPoolDefaultsToCPUs(t *testing.T) {
	assert.Positive(t, NewPool(0, testLogger()).Workers())
	assert.Equal(t, 5, NewPool(5, testLogger()).Workers())
}
