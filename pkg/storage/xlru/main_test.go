package xlru

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var baseTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// fakeClock 是可手动推进的时间源。
type fakeClock struct {
	ns atomic.Int64
}

func newFakeClock() *fakeClock {
	c := &fakeClock{}
	c.ns.Store(baseTime.UnixNano())
	return c
}

func (c *fakeClock) Now() time.Time { return time.Unix(0, c.ns.Load()) }

func (c *fakeClock) Advance(d time.Duration) { c.ns.Add(int64(d)) }

// newTestCache 创建不带后台清理、使用 fakeClock 的缓存，测试结束时关闭。
func newTestCache[V any](t *testing.T, cfg Config, clock *fakeClock, opts ...Option[string, V]) *Cache[string, V] {
	t.Helper()
	all := append([]Option[string, V]{
		WithoutSweeper[string, V](),
		WithClock[string, V](clock.Now),
	}, opts...)
	c, err := New[string, V](cfg, all...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// unitSize 把 int 值本身当作大小，便于精确校验内存记账。
func unitSize(v int) int64 { return int64(v) }
