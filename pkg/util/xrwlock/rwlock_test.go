package xrwlock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newLock(t *testing.T, opts ...Option) *RWLock {
	t.Helper()
	l, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestNewInvalidTimeout(t *testing.T) {
	_, err := New(WithTimeout(-time.Second))
	assert.ErrorIs(t, err, ErrInvalidTimeout)

	l, err := New(WithTimeout(time.Second))
	require.NoError(t, err)
	assert.Equal(t, time.Second, l.Timeout())
	require.NoError(t, l.Close())
}

func TestNilContext(t *testing.T) {
	l := newLock(t)

	assert.PanicsWithValue(t, "xrwlock: nil Context", func() {
		l.RLock(nil) //nolint:errcheck,staticcheck // 测试 nil ctx panic 行为
	})
}

func TestReadersShare(t *testing.T) {
	l := newLock(t)
	ctx := context.Background()

	require.NoError(t, l.RLock(ctx))
	require.NoError(t, l.RLock(ctx))
	assert.True(t, l.TryRLock())
	assert.False(t, l.TryLock(), "writer must wait for readers")

	l.RUnlock()
	l.RUnlock()
	l.RUnlock()
	assert.True(t, l.TryLock())
	l.Unlock()
}

func TestWriterExcludesAll(t *testing.T) {
	l := newLock(t)

	require.NoError(t, l.Lock(context.Background()))
	assert.False(t, l.TryRLock())
	assert.False(t, l.TryLock())
	l.Unlock()

	assert.True(t, l.TryRLock())
	l.RUnlock()
}

func TestLockTimeout(t *testing.T) {
	l := newLock(t, WithTimeout(20*time.Millisecond))

	require.NoError(t, l.RLock(context.Background()))

	start := time.Now()
	err := l.Lock(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	l.RUnlock()
	require.NoError(t, l.Lock(context.Background()), "timed-out writer must not leak weight")
	l.Unlock()
}

func TestRLockTimeoutWhileWriterHeld(t *testing.T) {
	l := newLock(t, WithTimeout(10*time.Millisecond))

	require.NoError(t, l.Lock(context.Background()))
	assert.ErrorIs(t, l.RLock(context.Background()), ErrTimeout)
	l.Unlock()
}

func TestCallerDeadlineMapsToTimeout(t *testing.T) {
	l := newLock(t)
	require.NoError(t, l.Lock(context.Background()))
	defer l.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.RLock(ctx), ErrTimeout)
}

func TestCallerCancel(t *testing.T) {
	l := newLock(t)
	require.NoError(t, l.Lock(context.Background()))
	defer l.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Lock(ctx), context.Canceled)
}

func TestQueuedWriterBlocksNewReaders(t *testing.T) {
	l := newLock(t)
	ctx := context.Background()

	require.NoError(t, l.RLock(ctx))

	acquired := make(chan struct{})
	go func() {
		if err := l.Lock(ctx); err == nil {
			close(acquired)
			l.Unlock()
		}
	}()

	// 等待写者进入排队
	time.Sleep(20 * time.Millisecond)
	assert.False(t, l.TryRLock(), "reader must not overtake a queued writer")

	l.RUnlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("writer was not woken after readers released")
	}
}

func TestAfterClose(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	require.NoError(t, l.Close())
	assert.True(t, l.Closed())
	assert.ErrorIs(t, l.Close(), ErrClosed)

	assert.ErrorIs(t, l.RLock(context.Background()), ErrClosed)
	assert.ErrorIs(t, l.Lock(context.Background()), ErrClosed)
	assert.False(t, l.TryRLock())
	assert.False(t, l.TryLock())
}

func TestCloseDoesNotAffectHeldLocks(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	require.NoError(t, l.RLock(context.Background()))
	require.NoError(t, l.Close())
	assert.NotPanics(t, l.RUnlock)
}

func TestCloseWakesWaiters(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	require.NoError(t, l.Lock(context.Background()))

	const numWaiters = 6
	results := make(chan error, numWaiters)
	var wg sync.WaitGroup
	for i := range numWaiters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// 无超时，完全依赖 Close 唤醒
			if i%2 == 0 {
				results <- l.RLock(context.Background())
			} else {
				results <- l.Lock(context.Background())
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, l.Close())

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not wake all waiters")
	}

	close(results)
	for err := range results {
		assert.ErrorIs(t, err, ErrClosed)
	}
	l.Unlock()
}

func TestConcurrentMutualExclusion(t *testing.T) {
	l := newLock(t, WithTimeout(5*time.Second))
	ctx := context.Background()

	var (
		writers atomic.Int32
		readers atomic.Int32
		counter int
		wg      sync.WaitGroup
	)

	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				if i%4 == 0 {
					if err := l.Lock(ctx); err != nil {
						t.Error(err)
						return
					}
					assert.Equal(t, int32(1), writers.Add(1))
					assert.Zero(t, readers.Load())
					counter++
					writers.Add(-1)
					l.Unlock()
					continue
				}
				if err := l.RLock(ctx); err != nil {
					t.Error(err)
					return
				}
				readers.Add(1)
				assert.Zero(t, writers.Load())
				readers.Add(-1)
				l.RUnlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5*200, counter)
}
