package xmetrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CacheSnapshot 是一次采集时读取的缓存统计。
type CacheSnapshot struct {
	Requests    int64
	Hits        int64
	Misses      int64
	Evictions   int64
	Expirations int64
	Items       int64
	Bytes       int64
	HitRatio    float64
}

// CacheSource 在每次采集时返回缓存统计快照，须并发安全。
type CacheSource func() CacheSnapshot

// Registration 表示一次缓存指标注册。
type Registration struct {
	reg metric.Registration
}

// Unregister 停止导出该缓存的指标。
func (r *Registration) Unregister() error {
	if r == nil || r.reg == nil {
		return nil
	}
	return r.reg.Unregister()
}

type cacheInstruments struct {
	requests    metric.Int64ObservableCounter
	hits        metric.Int64ObservableCounter
	misses      metric.Int64ObservableCounter
	evictions   metric.Int64ObservableCounter
	expirations metric.Int64ObservableCounter
	items       metric.Int64ObservableGauge
	bytes       metric.Int64ObservableGauge
	hitRatio    metric.Float64ObservableGauge
}

// RegisterCache 以 name 为 cache 属性导出 src 的统计。
// 支持 WithMeterProvider 与 WithInstrumentationName，其余选项被忽略。
//
// 统计被 Clear 重置时，单调计数会回落，采集端按计数器重置处理。
func RegisterCache(name string, src CacheSource, opts ...Option) (*Registration, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	cfg := newOTelConfig(opts)
	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	inst, err := newCacheInstruments(meter)
	if err != nil {
		return nil, err
	}

	set := metric.WithAttributeSet(attribute.NewSet(attribute.String("cache", name)))
	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := src()
		o.ObserveInt64(inst.requests, s.Requests, set)
		o.ObserveInt64(inst.hits, s.Hits, set)
		o.ObserveInt64(inst.misses, s.Misses, set)
		o.ObserveInt64(inst.evictions, s.Evictions, set)
		o.ObserveInt64(inst.expirations, s.Expirations, set)
		o.ObserveInt64(inst.items, s.Items, set)
		o.ObserveInt64(inst.bytes, s.Bytes, set)
		o.ObserveFloat64(inst.hitRatio, s.HitRatio, set)
		return nil
	},
		inst.requests, inst.hits, inst.misses, inst.evictions, inst.expirations,
		inst.items, inst.bytes, inst.hitRatio,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegisterCallback, err)
	}
	return &Registration{reg: reg}, nil
}

func newCacheInstruments(meter metric.Meter) (*cacheInstruments, error) {
	var (
		inst cacheInstruments
		err  error
	)

	counters := []struct {
		dst  *metric.Int64ObservableCounter
		name string
		desc string
	}{
		{&inst.requests, "xlru.cache.requests", "cache read and write requests"},
		{&inst.hits, "xlru.cache.hits", "cache hits"},
		{&inst.misses, "xlru.cache.misses", "cache misses, including expired reads"},
		{&inst.evictions, "xlru.cache.evictions", "entries evicted by capacity limits"},
		{&inst.expirations, "xlru.cache.expirations", "entries expired"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64ObservableCounter(c.name,
			metric.WithDescription(c.desc),
			metric.WithUnit("1"),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCreateCounter, c.name, err)
		}
	}

	inst.items, err = meter.Int64ObservableGauge("xlru.cache.items",
		metric.WithDescription("entries currently stored"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: xlru.cache.items: %w", ErrCreateGauge, err)
	}
	inst.bytes, err = meter.Int64ObservableGauge("xlru.cache.bytes",
		metric.WithDescription("estimated memory in use"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: xlru.cache.bytes: %w", ErrCreateGauge, err)
	}
	inst.hitRatio, err = meter.Float64ObservableGauge("xlru.cache.hit_ratio",
		metric.WithDescription("hits divided by requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: xlru.cache.hit_ratio: %w", ErrCreateGauge, err)
	}
	return &inst, nil
}
