package xlru

import (
	"fmt"
	"sync/atomic"
)

// Metrics 是缓存的实时统计，所有方法并发安全。
//
// 计数器（请求、未命中、淘汰、过期）单调递增，Clear 时归零；
// 条目数和内存占用是存储的实时值。
type Metrics struct {
	requests    atomic.Int64
	misses      atomic.Int64
	evictions   atomic.Int64
	expirations atomic.Int64

	items atomic.Int64
	bytes atomic.Int64
}

// Stats 是 Metrics 的快照。
type Stats struct {
	Requests    int64
	Hits        int64
	Misses      int64
	Evictions   int64
	Expirations int64
	Items       int64
	Bytes       int64
	HitRatio    float64
}

// String 返回适合日志和命令行输出的单行描述。
func (s Stats) String() string {
	return fmt.Sprintf("requests=%d hits=%d misses=%d hit_ratio=%.4f evictions=%d expirations=%d items=%d bytes=%d",
		s.Requests, s.Hits, s.Misses, s.HitRatio, s.Evictions, s.Expirations, s.Items, s.Bytes)
}

// Requests 返回请求数（Put 与 TryGet 均计入）。
func (m *Metrics) Requests() int64 { return m.requests.Load() }

// Misses 返回未命中数，包含读到已过期条目。
func (m *Metrics) Misses() int64 { return m.misses.Load() }

// Hits 返回命中数，即 Requests - Misses。
func (m *Metrics) Hits() int64 { return m.requests.Load() - m.misses.Load() }

// Evictions 返回容量淘汰数。
func (m *Metrics) Evictions() int64 { return m.evictions.Load() }

// Expirations 返回过期数，每个过期条目只计一次。
func (m *Metrics) Expirations() int64 { return m.expirations.Load() }

// Items 返回当前条目数。
func (m *Metrics) Items() int64 { return m.items.Load() }

// Bytes 返回当前内存占用（字节）。
func (m *Metrics) Bytes() int64 { return m.bytes.Load() }

// HitRatio 返回命中率，没有请求时为 0。
func (m *Metrics) HitRatio() float64 {
	return hitRatio(m.requests.Load(), m.misses.Load())
}

// Snapshot 返回当前统计的快照。
// 各字段分别原子读取，并发写入时快照之间可能有微小偏差。
func (m *Metrics) Snapshot() Stats {
	requests := m.requests.Load()
	misses := m.misses.Load()
	return Stats{
		Requests:    requests,
		Hits:        requests - misses,
		Misses:      misses,
		Evictions:   m.evictions.Load(),
		Expirations: m.expirations.Load(),
		Items:       m.items.Load(),
		Bytes:       m.bytes.Load(),
		HitRatio:    hitRatio(requests, misses),
	}
}

func (m *Metrics) recordRequest()        { m.requests.Add(1) }
func (m *Metrics) recordMiss()           { m.misses.Add(1) }
func (m *Metrics) recordExpiration()     { m.expirations.Add(1) }
func (m *Metrics) recordEvictions(n int) { m.evictions.Add(int64(n)) }

func (m *Metrics) setUsage(items int, bytes int64) {
	m.items.Store(int64(items))
	m.bytes.Store(bytes)
}

func (m *Metrics) reset() {
	m.requests.Store(0)
	m.misses.Store(0)
	m.evictions.Store(0)
	m.expirations.Store(0)
	m.items.Store(0)
	m.bytes.Store(0)
}

func hitRatio(requests, misses int64) float64 {
	if requests <= 0 {
		return 0
	}
	return float64(requests-misses) / float64(requests)
}
