package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xlru/pkg/observability/xmetrics"
	"github.com/omeyang/xlru/pkg/storage/xlru"
)

var attrEncoder = attribute.DefaultEncoder()

// simulateOptions 描述一次负载模拟。
type simulateOptions struct {
	workers   int
	ops       int
	keys      int
	valueSize int
	readRatio float64
	mode      string
	ttl       time.Duration
	seed      uint64
}

func (o simulateOptions) validate() error {
	switch {
	case o.workers <= 0:
		return fmt.Errorf("workers must be positive, got %d", o.workers)
	case o.ops < 0:
		return fmt.Errorf("ops must not be negative, got %d", o.ops)
	case o.keys <= 0:
		return fmt.Errorf("keys must be positive, got %d", o.keys)
	case o.valueSize < 0:
		return fmt.Errorf("value-size must not be negative, got %d", o.valueSize)
	case o.readRatio < 0 || o.readRatio > 1:
		return fmt.Errorf("read-ratio must be in [0, 1], got %g", o.readRatio)
	case o.ttl < 0:
		return fmt.Errorf("ttl must not be negative, got %s", o.ttl)
	}
	return nil
}

// simulateCounts 汇总各 worker 的操作结果。
type simulateCounts struct {
	hits     atomic.Int64
	notFound atomic.Int64
	expired  atomic.Int64
	puts     atomic.Int64
	rejected atomic.Int64
	evicted  atomic.Int64
	expEvent atomic.Int64
}

// createSimulateCommand 创建 simulate 子命令。
func createSimulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "并发读写负载，输出统计与 OTel 指标",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "并发 worker 数", Value: 4},
			&cli.IntFlag{Name: "ops", Aliases: []string{"n"}, Usage: "每个 worker 的操作数", Value: 10000},
			&cli.IntFlag{Name: "keys", Usage: "key 空间大小", Value: 1000},
			&cli.IntFlag{Name: "value-size", Usage: "值大小（字节）", Value: 64},
			&cli.FloatFlag{Name: "read-ratio", Usage: "读操作占比 [0, 1]", Value: 0.8},
			&cli.StringFlag{Name: "mode", Usage: "覆盖过期方式 none/absolute/sliding/both"},
			&cli.DurationFlag{Name: "ttl", Usage: "每次写入的过期时长，0 使用配置的 default_ttl"},
			&cli.IntFlag{Name: "seed", Usage: "随机种子，相同种子生成相同的操作序列", Value: 1},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := simulateOptions{
				workers:   cmd.Int("workers"),
				ops:       cmd.Int("ops"),
				keys:      cmd.Int("keys"),
				valueSize: cmd.Int("value-size"),
				readRatio: cmd.Float("read-ratio"),
				mode:      cmd.String("mode"),
				ttl:       cmd.Duration("ttl"),
				seed:      uint64(cmd.Int("seed")),
			}
			if err := opts.validate(); err != nil {
				return &usageError{err: err}
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if opts.mode != "" {
				mode, err := xlru.ParseTTLMode(opts.mode)
				if err != nil {
					return &usageError{err: err}
				}
				cfg.Policy.Mode = mode
			}

			logger, cleanup, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()

			return runSimulation(ctx, cfg, opts, logger, stdout(cmd))
		},
	}
}

// runSimulation 运行负载并输出结果。
func runSimulation(ctx context.Context, cfg xlru.Config, opts simulateOptions, logger *slog.Logger, w io.Writer) error {
	runID := uuid.NewString()
	logger = logger.With(slog.String("run_id", runID))

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.WithoutCancel(ctx)) }()

	obs, err := xmetrics.NewOTelObserver(xmetrics.WithMeterProvider(mp))
	if err != nil {
		return err
	}

	var counts simulateCounts
	cache, err := xlru.New[string, []byte](cfg,
		xlru.WithLogger[string, []byte](logger),
		xlru.WithObserver[string, []byte](obs),
		xlru.WithOnEvicted[string, []byte](func(xlru.Event[string, []byte]) { counts.evicted.Add(1) }),
		xlru.WithOnExpired[string, []byte](func(xlru.Event[string, []byte]) { counts.expEvent.Add(1) }),
	)
	if err != nil {
		return &usageError{err: err}
	}
	defer func() { _ = cache.Close() }()

	reg, err := cache.RegisterMetrics("simulate", xmetrics.WithMeterProvider(mp))
	if err != nil {
		return err
	}
	defer func() { _ = reg.Unregister() }()

	logger.Info("xlructl: simulation started",
		slog.Int("workers", opts.workers),
		slog.Int("ops", opts.ops),
		slog.String("mode", string(cfg.Policy.Mode)),
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for id := range opts.workers {
		g.Go(func() error {
			return simulateWorker(gctx, cache, opts, id, &counts)
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("xlructl: simulation failed", slog.String("error", err.Error()))
		return err
	}
	elapsed := time.Since(start)

	logger.Info("xlructl: simulation finished", slog.Duration("elapsed", elapsed))

	fmt.Fprintf(w, "run %s: %d workers x %d ops in %s\n", runID, opts.workers, opts.ops, elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "gets: hit=%d not_found=%d expired=%d\n", counts.hits.Load(), counts.notFound.Load(), counts.expired.Load())
	fmt.Fprintf(w, "puts: ok=%d rejected=%d\n", counts.puts.Load(), counts.rejected.Load())
	fmt.Fprintf(w, "events: evicted=%d expired=%d\n", counts.evicted.Load(), counts.expEvent.Load())
	fmt.Fprintf(w, "stats: %s\n", cache.Stats())

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.WithoutCancel(ctx), &rm); err != nil {
		return err
	}
	for _, line := range formatMetrics(rm) {
		fmt.Fprintln(w, line)
	}
	return nil
}

func simulateWorker(ctx context.Context, cache *xlru.Cache[string, []byte], opts simulateOptions, id int, counts *simulateCounts) error {
	r := rand.New(rand.NewPCG(opts.seed, uint64(id)))
	value := make([]byte, opts.valueSize)

	for range opts.ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := "key-" + strconv.Itoa(r.IntN(opts.keys))

		if r.Float64() < opts.readRatio {
			_, err := cache.TryGet(key)
			switch {
			case err == nil:
				counts.hits.Add(1)
			case errors.Is(err, xlru.ErrItemNotFound):
				counts.notFound.Add(1)
			case errors.Is(err, xlru.ErrItemExpired):
				counts.expired.Add(1)
			default:
				return fmt.Errorf("worker %d: get %s: %w", id, key, err)
			}
			continue
		}

		err := cache.PutWithTTL(key, value, opts.ttl)
		switch {
		case err == nil:
			counts.puts.Add(1)
		case errors.Is(err, xlru.ErrMaxMemorySizeExceeded):
			counts.rejected.Add(1)
		default:
			return fmt.Errorf("worker %d: put %s: %w", id, key, err)
		}
	}
	return nil
}

// formatMetrics 把采集结果格式化为按名称排序的 "name{attrs} value" 行。
func formatMetrics(rm metricdata.ResourceMetrics) []string {
	var lines []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch d := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range d.DataPoints {
					lines = append(lines, fmt.Sprintf("%s{%s} %d", m.Name, dp.Attributes.Encoded(attrEncoder), dp.Value))
				}
			case metricdata.Gauge[int64]:
				for _, dp := range d.DataPoints {
					lines = append(lines, fmt.Sprintf("%s{%s} %d", m.Name, dp.Attributes.Encoded(attrEncoder), dp.Value))
				}
			case metricdata.Gauge[float64]:
				for _, dp := range d.DataPoints {
					lines = append(lines, fmt.Sprintf("%s{%s} %.4f", m.Name, dp.Attributes.Encoded(attrEncoder), dp.Value))
				}
			case metricdata.Histogram[float64]:
				for _, dp := range d.DataPoints {
					lines = append(lines, fmt.Sprintf("%s{%s} count=%d sum=%.6f", m.Name, dp.Attributes.Encoded(attrEncoder), dp.Count, dp.Sum))
				}
			}
		}
	}
	slices.Sort(lines)
	return lines
}
