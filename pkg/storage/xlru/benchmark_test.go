package xlru

import (
	"fmt"
	"testing"
	"time"
)

func newBenchCache(b *testing.B, maxItems int) *Cache[string, int] {
	b.Helper()
	c, err := New[string, int](Config{
		MaxItems:       maxItems,
		MaxMemoryBytes: 1 << 30,
		Policy:         Policy{Mode: ModeSliding, DefaultTTL: time.Hour},
	}, WithoutSweeper[string, int]())
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = c.Close() })
	return c
}

func BenchmarkCache_TryGet(b *testing.B) {
	c := newBenchCache(b, 1000)
	if err := c.Put("benchmark_key", 42); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		_, _ = c.TryGet("benchmark_key")
	}
}

func BenchmarkCache_TryGet_Miss(b *testing.B) {
	c := newBenchCache(b, 1000)

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		_, _ = c.TryGet("missing")
	}
}

func BenchmarkCache_Put_Evicting(b *testing.B) {
	c := newBenchCache(b, 1000)
	keys := make([]string, 4096)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}

	b.ReportAllocs()
	b.ResetTimer()
	i := 0
	for b.Loop() {
		_ = c.Put(keys[i%len(keys)], i)
		i++
	}
}

func BenchmarkCache_TryGet_Parallel(b *testing.B) {
	c := newBenchCache(b, 1000)
	for i := range 1000 {
		_ = c.Put(fmt.Sprintf("key-%d", i), i)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = c.TryGet(fmt.Sprintf("key-%d", i%1000))
			i++
		}
	})
}
