package xlru_test

import (
	"errors"
	"fmt"
	"time"

	"github.com/omeyang/xlru/pkg/storage/xlru"
)

func ExampleNew() {
	cache, err := xlru.New[string, string](xlru.Config{
		MaxItems:       2,
		MaxMemoryBytes: 1 << 20,
		LockTimeout:    time.Second,
	}, xlru.WithoutSweeper[string, string]())
	if err != nil {
		panic(err)
	}
	defer cache.Close()

	cache.OnEvicted(func(ev xlru.Event[string, string]) {
		fmt.Println("evicted:", ev.Key)
	})

	_ = cache.Put("a", "1")
	_ = cache.Put("b", "2")
	_ = cache.Put("c", "3")

	_, err = cache.TryGet("a")
	fmt.Println(errors.Is(err, xlru.ErrItemNotFound))

	v, _ := cache.TryGet("c")
	fmt.Println(v)
	// Output:
	// evicted: a
	// true
	// 3
}

func ExampleCache_PutWithTTL() {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	cache, err := xlru.New[string, int](xlru.Config{
		MaxItems:       10,
		MaxMemoryBytes: 1024,
		Policy:         xlru.Policy{Mode: xlru.ModeAbsolute, DefaultTTL: time.Hour},
	}, xlru.WithoutSweeper[string, int](), xlru.WithClock[string, int](clock))
	if err != nil {
		panic(err)
	}
	defer cache.Close()

	_ = cache.PutWithTTL("session", 1, time.Minute)
	now = now.Add(2 * time.Minute)

	_, err = cache.TryGet("session")
	fmt.Println(errors.Is(err, xlru.ErrItemExpired))
	fmt.Println(cache.Stats().Expirations)
	// Output:
	// true
	// 1
}

func ExampleParseConfig() {
	cfg, err := xlru.ParseConfig([]byte(`
max_items: 1000
max_memory_bytes: 1048576
policy:
  mode: sliding
  default_ttl: 10m
`), xlru.FormatYAML)
	if err != nil {
		panic(err)
	}
	fmt.Println(cfg.MaxItems, cfg.Policy.Mode, cfg.Policy.DefaultTTL, cfg.CleanupInterval)
	// Output:
	// 1000 sliding 10m0s 10m0s
}
