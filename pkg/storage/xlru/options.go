package xlru

import (
	"log/slog"
	"time"

	"github.com/omeyang/xlru/pkg/observability/xmetrics"
)

// Option 定义缓存可选配置函数类型。
type Option[K comparable, V any] func(*options[K, V])

type options[K comparable, V any] struct {
	sizeOf    SizeFunc[V]
	logger    *slog.Logger
	now       func() time.Time
	onEvicted []Listener[K, V]
	onExpired []Listener[K, V]
	noSweeper bool
	sweepHook func(SweepResult)
	observer  xmetrics.Observer
}

func defaultOptions[K comparable, V any]() *options[K, V] {
	return &options[K, V]{
		sizeOf: DefaultSizeOf[V],
		now:    time.Now,
	}
}

// WithSizeFunc 设置值大小估算函数，默认 DefaultSizeOf。
func WithSizeFunc[K comparable, V any](fn SizeFunc[V]) Option[K, V] {
	return func(o *options[K, V]) {
		if fn != nil {
			o.sizeOf = fn
		}
	}
}

// WithLogger 设置日志记录器，默认 slog.Default()。
func WithLogger[K comparable, V any](logger *slog.Logger) Option[K, V] {
	return func(o *options[K, V]) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock 设置时间源，主要用于测试过期逻辑。
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(o *options[K, V]) {
		if now != nil {
			o.now = now
		}
	}
}

// WithOnEvicted 注册容量淘汰监听器，等价于创建后调用 OnEvicted。
func WithOnEvicted[K comparable, V any](fn Listener[K, V]) Option[K, V] {
	return func(o *options[K, V]) {
		if fn != nil {
			o.onEvicted = append(o.onEvicted, fn)
		}
	}
}

// WithOnExpired 注册过期监听器，等价于创建后调用 OnExpired。
func WithOnExpired[K comparable, V any](fn Listener[K, V]) Option[K, V] {
	return func(o *options[K, V]) {
		if fn != nil {
			o.onExpired = append(o.onExpired, fn)
		}
	}
}

// WithoutSweeper 不创建后台清理器，Sweeper() 返回 nil。
// 过期条目只在读取时删除，需要时可用 NewSweeper 自行创建清理器。
func WithoutSweeper[K comparable, V any]() Option[K, V] {
	return func(o *options[K, V]) {
		o.noSweeper = true
	}
}

// WithSweepHook 设置每轮后台清理结束后的回调。
func WithSweepHook[K comparable, V any](fn func(SweepResult)) Option[K, V] {
	return func(o *options[K, V]) {
		o.sweepHook = fn
	}
}

// WithObserver 设置操作观测器，为 put/get/remove/clear 与后台清理记录 span 和指标。
// 默认不观测。
func WithObserver[K comparable, V any](obs xmetrics.Observer) Option[K, V] {
	return func(o *options[K, V]) {
		o.observer = obs
	}
}
