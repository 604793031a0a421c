package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xlru/pkg/storage/xlru"
)

// scenario 是一项缓存行为自检。
type scenario struct {
	name string
	run  func(ctx context.Context, logger *slog.Logger) error
}

func scenarios() []scenario {
	return []scenario{
		{"basic put/get/remove", checkBasic},
		{"absolute expiration", checkAbsolute},
		{"sliding expiration", checkSliding},
		{"memory limit", checkMemoryLimit},
		{"item count limit", checkCountLimit},
		{"statistics", checkStatistics},
		{"events", checkEvents},
		{"concurrent operations", checkConcurrent},
		{"error handling", checkErrors},
		{"background cleanup", checkBackgroundCleanup},
	}
}

// createCheckCommand 创建 check 子命令。
func createCheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "运行缓存行为自检",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "run",
				Usage: "只运行名称包含该子串的自检，可重复指定",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger, cleanup, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()

			if failed := runChecks(ctx, selectScenarios(cmd.StringSlice("run")), logger, stdout(cmd)); failed > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}

func selectScenarios(filters []string) []scenario {
	all := scenarios()
	if len(filters) == 0 {
		return all
	}
	var selected []scenario
	for _, s := range all {
		for _, f := range filters {
			if strings.Contains(s.name, f) {
				selected = append(selected, s)
				break
			}
		}
	}
	return selected
}

// runChecks 顺序运行自检并输出结果，返回失败数。
func runChecks(ctx context.Context, list []scenario, logger *slog.Logger, w io.Writer) int {
	failed := 0
	for _, s := range list {
		fmt.Fprintf(w, "running %s... ", s.name)
		if err := s.run(ctx, logger); err != nil {
			failed++
			fmt.Fprintf(w, "FAILED (%v)\n", err)
			continue
		}
		fmt.Fprintln(w, "PASSED")
	}
	fmt.Fprintf(w, "\n%d/%d checks passed\n", len(list)-failed, len(list))
	return failed
}

func newCheckCache[K comparable, V any](logger *slog.Logger, cfg xlru.Config, opts ...xlru.Option[K, V]) (*xlru.Cache[K, V], error) {
	opts = append([]xlru.Option[K, V]{xlru.WithLogger[K, V](logger)}, opts...)
	return xlru.New[K, V](cfg, opts...)
}

func expectErr(err, target error) error {
	if !errors.Is(err, target) {
		return fmt.Errorf("want %v, got %v", target, err)
	}
	return nil
}

// sleep 等待 d，ctx 取消时提前返回。
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func checkBasic(_ context.Context, logger *slog.Logger) error {
	c, err := newCheckCache[string, string](logger, xlru.Config{
		MaxItems:       100,
		MaxMemoryBytes: 1 << 20,
		Policy:         xlru.Policy{Mode: xlru.ModeAbsolute},
	})
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.PutWithTTL("key1", "value1", 5*time.Minute); err != nil {
		return err
	}
	got, err := c.TryGet("key1")
	if err != nil {
		return err
	}
	if got != "value1" {
		return fmt.Errorf("got %q, want %q", got, "value1")
	}
	if _, err := c.Remove("key1"); err != nil {
		return err
	}
	_, err = c.TryGet("key1")
	return expectErr(err, xlru.ErrItemNotFound)
}

func checkAbsolute(ctx context.Context, logger *slog.Logger) error {
	c, err := newCheckCache[string, string](logger, xlru.Config{
		MaxItems:       100,
		MaxMemoryBytes: 1 << 20,
		Policy:         xlru.Policy{Mode: xlru.ModeAbsolute},
	})
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.PutWithTTL("k", "v", 50*time.Millisecond); err != nil {
		return err
	}
	if _, err := c.TryGet("k"); err != nil {
		return fmt.Errorf("before expiry: %w", err)
	}
	if err := sleep(ctx, 150*time.Millisecond); err != nil {
		return err
	}
	_, err = c.TryGet("k")
	return expectErr(err, xlru.ErrItemExpired)
}

func checkSliding(ctx context.Context, logger *slog.Logger) error {
	c, err := newCheckCache[string, string](logger, xlru.Config{
		MaxItems:       100,
		MaxMemoryBytes: 1 << 20,
		Policy:         xlru.Policy{Mode: xlru.ModeSliding},
	})
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.PutWithTTL("k", "v", 300*time.Millisecond); err != nil {
		return err
	}
	// 每次读取都会把过期时间往后推
	for i := range 3 {
		if err := sleep(ctx, 100*time.Millisecond); err != nil {
			return err
		}
		if _, err := c.TryGet("k"); err != nil {
			return fmt.Errorf("read %d: %w", i, err)
		}
	}
	if err := sleep(ctx, 600*time.Millisecond); err != nil {
		return err
	}
	_, err = c.TryGet("k")
	return expectErr(err, xlru.ErrItemExpired)
}

func checkMemoryLimit(_ context.Context, logger *slog.Logger) error {
	c, err := newCheckCache[string, string](logger, xlru.Config{
		MaxItems:       100,
		MaxMemoryBytes: 100,
	})
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.Put("small", "x"); err != nil {
		return err
	}
	err = c.Put("large", strings.Repeat("x", 1000))
	if err := expectErr(err, xlru.ErrMaxMemorySizeExceeded); err != nil {
		return err
	}
	if c.MemorySize() > 100 {
		return fmt.Errorf("memory %d exceeds limit", c.MemorySize())
	}
	return nil
}

func checkCountLimit(_ context.Context, logger *slog.Logger) error {
	c, err := newCheckCache[int, string](logger, xlru.Config{
		MaxItems:       3,
		MaxMemoryBytes: 1 << 20,
	})
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	for i := range 4 {
		if err := c.Put(i, "value"+strconv.Itoa(i)); err != nil {
			return err
		}
	}
	if _, err := c.TryGet(0); expectErr(err, xlru.ErrItemNotFound) != nil {
		return fmt.Errorf("oldest entry not evicted: %v", err)
	}
	for i := 1; i <= 3; i++ {
		if _, err := c.TryGet(i); err != nil {
			return fmt.Errorf("key %d: %w", i, err)
		}
	}
	return nil
}

func checkStatistics(_ context.Context, logger *slog.Logger) error {
	c, err := newCheckCache[string, string](logger, xlru.Config{
		MaxItems:       100,
		MaxMemoryBytes: 1 << 20,
	})
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.Put("a", "1"); err != nil {
		return err
	}
	_, _ = c.TryGet("a")
	_, _ = c.TryGet("a")
	_, _ = c.TryGet("missing")

	s := c.Stats()
	if s.Requests != 4 || s.Misses != 1 || s.Hits != 3 {
		return fmt.Errorf("unexpected stats: %s", s)
	}
	if s.HitRatio != 0.75 {
		return fmt.Errorf("hit ratio %.4f, want 0.75", s.HitRatio)
	}
	return nil
}

func checkEvents(ctx context.Context, logger *slog.Logger) error {
	var evicted, expired atomic.Int64
	c, err := newCheckCache[string, string](logger, xlru.Config{
		MaxItems:       1,
		MaxMemoryBytes: 1 << 20,
		Policy:         xlru.Policy{Mode: xlru.ModeAbsolute},
	},
		xlru.WithOnEvicted[string, string](func(xlru.Event[string, string]) { evicted.Add(1) }),
		xlru.WithOnExpired[string, string](func(xlru.Event[string, string]) { expired.Add(1) }),
	)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.Put("a", "1"); err != nil {
		return err
	}
	if err := c.Put("b", "2"); err != nil {
		return err
	}
	if evicted.Load() != 1 {
		return fmt.Errorf("evicted events %d, want 1", evicted.Load())
	}

	if err := c.PutWithTTL("c", "3", 30*time.Millisecond); err != nil {
		return err
	}
	if err := sleep(ctx, 100*time.Millisecond); err != nil {
		return err
	}
	_, _ = c.TryGet("c")
	_, _ = c.TryGet("c")
	if expired.Load() != 1 {
		return fmt.Errorf("expired events %d, want 1", expired.Load())
	}
	return nil
}

func checkConcurrent(ctx context.Context, logger *slog.Logger) error {
	const maxItems = 64
	c, err := newCheckCache[int, int](logger, xlru.Config{
		MaxItems:       maxItems,
		MaxMemoryBytes: 1 << 20,
	})
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	g, _ := errgroup.WithContext(ctx)
	for w := range 8 {
		g.Go(func() error {
			for i := range 500 {
				key := (w*131 + i) % 200
				if err := c.Put(key, i); err != nil {
					return err
				}
				if _, err := c.TryGet(key); err != nil && !errors.Is(err, xlru.ErrItemNotFound) {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if n := c.Len(); n > maxItems {
		return fmt.Errorf("len %d exceeds limit %d", n, maxItems)
	}
	return nil
}

func checkErrors(_ context.Context, logger *slog.Logger) error {
	c, err := newCheckCache[*string, string](logger, xlru.Config{
		MaxItems:       10,
		MaxMemoryBytes: 1 << 20,
		Policy:         xlru.Policy{Mode: xlru.ModeAbsolute},
	})
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := expectErr(c.Put(nil, "v"), xlru.ErrInvalidKey); err != nil {
		return err
	}
	key := new(string)
	if err := expectErr(c.PutWithTTL(key, "v", -time.Second), xlru.ErrInvalidExpiration); err != nil {
		return err
	}
	if _, err := c.Remove(key); expectErr(err, xlru.ErrItemNotFound) != nil {
		return fmt.Errorf("remove missing: %v", err)
	}
	_ = c.Close()
	return expectErr(c.Put(key, "v"), xlru.ErrClosed)
}

func checkBackgroundCleanup(ctx context.Context, logger *slog.Logger) error {
	c, err := newCheckCache[string, string](logger, xlru.Config{
		MaxItems:        100,
		MaxMemoryBytes:  1 << 20,
		Policy:          xlru.Policy{Mode: xlru.ModeAbsolute, DefaultTTL: 30 * time.Millisecond},
		CleanupInterval: 20 * time.Millisecond,
	})
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	for i := range 5 {
		if err := c.Put("k"+strconv.Itoa(i), "v"); err != nil {
			return err
		}
	}
	deadline := time.Now().Add(2 * time.Second)
	for c.Len() > 0 {
		if time.Now().After(deadline) {
			return fmt.Errorf("%d entries left after cleanup", c.Len())
		}
		if err := sleep(ctx, 10*time.Millisecond); err != nil {
			return err
		}
	}
	if n := c.Stats().Expirations; n != 5 {
		return fmt.Errorf("expirations %d, want 5", n)
	}
	return nil
}
