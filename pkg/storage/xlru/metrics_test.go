package xlru

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_HitRatio(t *testing.T) {
	var m Metrics
	assert.Zero(t, m.HitRatio())
	assert.Zero(t, m.Snapshot().HitRatio)

	// 3 次命中 1 次未命中
	for range 4 {
		m.recordRequest()
	}
	m.recordMiss()

	assert.Equal(t, int64(4), m.Requests())
	assert.Equal(t, int64(3), m.Hits())
	assert.Equal(t, int64(1), m.Misses())
	assert.InDelta(t, 0.75, m.HitRatio(), 1e-9)
}

func TestMetrics_Snapshot(t *testing.T) {
	var m Metrics
	m.recordRequest()
	m.recordRequest()
	m.recordMiss()
	m.recordEvictions(3)
	m.recordExpiration()
	m.setUsage(5, 640)

	st := m.Snapshot()
	assert.Equal(t, Stats{
		Requests:    2,
		Hits:        1,
		Misses:      1,
		Evictions:   3,
		Expirations: 1,
		Items:       5,
		Bytes:       640,
		HitRatio:    0.5,
	}, st)
	assert.Equal(t, "requests=2 hits=1 misses=1 hit_ratio=0.5000 evictions=3 expirations=1 items=5 bytes=640", st.String())

	m.reset()
	assert.Equal(t, Stats{}, m.Snapshot())
}

func TestCache_HitRatioThroughFacade(t *testing.T) {
	c := newTestCache[int](t, Config{MaxItems: 10, MaxMemoryBytes: 1000}, newFakeClock())
	assert.Zero(t, c.Stats().HitRatio)

	a := assert.New(t)
	a.NoError(c.Put("a", 1))
	for range 3 {
		_, err := c.TryGet("a")
		a.NoError(err)
	}
	_, err := c.TryGet("b")
	a.ErrorIs(err, ErrItemNotFound)

	// Put 也计为请求：5 次请求 1 次未命中
	st := c.Stats()
	assert.Equal(t, int64(5), st.Requests)
	assert.Equal(t, int64(1), st.Misses)
	assert.InDelta(t, 0.8, st.HitRatio, 1e-9)
	assert.Same(t, &c.metrics, c.Metrics())
}
