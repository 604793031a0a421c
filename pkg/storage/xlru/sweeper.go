package xlru

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/avast/retry-go/v5"

	"github.com/omeyang/xlru/pkg/observability/xmetrics"
)

// sweepAttempts 清理失败时的最大尝试次数（含首次）。
const sweepAttempts = 3

// SweepTarget 是清理器操作的对象，*Cache 实现了该接口。
type SweepTarget[K comparable] interface {
	// GetExpiredKeys 返回当前已过期的 key。
	GetExpiredKeys() ([]K, error)
	// RemoveExpired 在 key 仍处于过期状态时删除它，返回是否删除。
	RemoveExpired(key K) (bool, error)
}

// SweepResult 描述一轮清理的结果。
type SweepResult struct {
	// Removed 本轮删除的过期条目数。
	Removed int
	// Err 导致本轮提前结束的错误，nil 表示完整执行。
	Err error
	// Duration 本轮耗时。
	Duration time.Duration
}

// SweeperOption 定义清理器可选配置。
type SweeperOption func(*sweeperOptions)

type sweeperOptions struct {
	logger   *slog.Logger
	hook     func(SweepResult)
	observer xmetrics.Observer
}

// WithSweeperLogger 设置清理器日志记录器，默认 slog.Default()。
func WithSweeperLogger(logger *slog.Logger) SweeperOption {
	return func(o *sweeperOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSweeperHook 设置每轮后台清理结束后的回调，SweepNow 不触发。
// 回调在清理 goroutine 中执行，不得调用 Stop/Close。
func WithSweeperHook(fn func(SweepResult)) SweeperOption {
	return func(o *sweeperOptions) {
		o.hook = fn
	}
}

// WithSweeperObserver 设置观测器，每轮清理（含 SweepNow）记录一个 sweep span。
func WithSweeperObserver(obs xmetrics.Observer) SweeperOption {
	return func(o *sweeperOptions) {
		o.observer = obs
	}
}

type sweeperState uint8

const (
	sweeperStopped sweeperState = iota
	sweeperRunning
	sweeperClosed
)

// Sweeper 周期性删除过期条目。
//
// 状态：Stopped（初始）→ Running（Start）→ Stopped（Stop）→ Closed（Close，终态）。
// 运行中再次 Start 只重置周期；Close 之后 Start/Stop 返回 ErrClosed。
//
// 每轮清理先获取过期 key，再逐个删除。未设置重试间隔时，任何失败都会结束本轮；
// 设置后按固定间隔重试，最多 3 次，仍失败则结束本轮并记录日志。
// 清理中的 panic 会被恢复，不影响后续周期。
type Sweeper[K comparable] struct {
	target        SweepTarget[K]
	interval      time.Duration
	retryInterval time.Duration
	logger        *slog.Logger
	hook          func(SweepResult)
	observer      xmetrics.Observer

	// cycleMu 保证清理轮次不重叠
	cycleMu sync.Mutex

	mu     sync.Mutex
	state  sweeperState
	ticker *time.Ticker
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper 创建处于 Stopped 状态的清理器。
// interval 必须大于 0；retryInterval 为 0 表示不重试，否则必须在 (0, interval] 内。
func NewSweeper[K comparable](target SweepTarget[K], interval, retryInterval time.Duration, opts ...SweeperOption) (*Sweeper[K], error) {
	if target == nil {
		return nil, ErrNilTarget
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidCleanupInterval, interval)
	}
	if err := validateRetryInterval(interval, retryInterval); err != nil {
		return nil, err
	}

	o := sweeperOptions{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return &Sweeper[K]{
		target:        target,
		interval:      interval,
		retryInterval: retryInterval,
		logger:        o.logger,
		hook:          o.hook,
		observer:      o.observer,
	}, nil
}

// Start 启动后台清理。已在运行时重置周期，不会启动第二个清理循环。
func (s *Sweeper[K]) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case sweeperClosed:
		return ErrClosed
	case sweeperRunning:
		s.ticker.Reset(s.interval)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.ticker = time.NewTicker(s.interval)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state = sweeperRunning

	go s.loop(ctx, s.ticker, s.done)
	return nil
}

// Stop 停止后台清理并等待进行中的一轮结束。未运行时为空操作。
func (s *Sweeper[K]) Stop() error {
	s.mu.Lock()
	if s.state == sweeperClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	done := s.stopLocked()
	s.mu.Unlock()

	if done != nil {
		<-done
	}
	return nil
}

// Close 停止后台清理并进入终态。可重复调用。
func (s *Sweeper[K]) Close() error {
	s.mu.Lock()
	if s.state == sweeperClosed {
		s.mu.Unlock()
		return nil
	}
	done := s.stopLocked()
	s.state = sweeperClosed
	s.mu.Unlock()

	if done != nil {
		<-done
	}
	return nil
}

// Running 报告后台清理是否在运行。
func (s *Sweeper[K]) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == sweeperRunning
}

// SweepNow 同步执行一轮清理，返回删除的条目数。
// 与后台清理互斥：后台清理进行中时等待其结束。ctx 取消会中断重试等待。
func (s *Sweeper[K]) SweepNow(ctx context.Context) (int, error) {
	if ctx == nil {
		panic("xlru: nil Context")
	}
	s.mu.Lock()
	closed := s.state == sweeperClosed
	s.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}

	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()
	return s.sweep(ctx)
}

// stopLocked 取消清理循环，返回其 done channel。调用方须持有 s.mu。
func (s *Sweeper[K]) stopLocked() chan struct{} {
	if s.state != sweeperRunning {
		return nil
	}
	s.cancel()
	s.state = sweeperStopped
	done := s.done
	s.cancel, s.done, s.ticker = nil, nil, nil
	return done
}

func (s *Sweeper[K]) loop(ctx context.Context, ticker *time.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper[K]) tick(ctx context.Context) {
	// SweepNow 进行中时跳过本轮
	if !s.cycleMu.TryLock() {
		return
	}
	defer s.cycleMu.Unlock()

	start := time.Now()
	removed, err := s.sweep(ctx)
	result := SweepResult{Removed: removed, Err: err, Duration: time.Since(start)}

	s.logger.Debug("xlru: sweep finished",
		slog.Int("removed", removed),
		slog.Duration("duration", result.Duration),
	)
	if s.hook != nil {
		s.hook(result)
	}
}

// sweep 执行一轮清理。
func (s *Sweeper[K]) sweep(ctx context.Context) (removed int, err error) {
	ctx, span := xmetrics.Start(ctx, s.observer, xmetrics.SpanOptions{
		Component: "xlru",
		Operation: "sweep",
	})
	defer func() {
		span.End(xmetrics.Result{Err: err, Attrs: []xmetrics.Attr{xmetrics.Int("removed", removed)}})
	}()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: sweep panic: %v", ErrStorage, r)
			s.logger.Error("xlru: sweep panic recovered", slog.Any("panic", r))
		}
	}()

	var keys []K
	err = s.retry(ctx, func() error {
		var getErr error
		keys, getErr = s.target.GetExpiredKeys()
		return getErr
	})
	if err != nil {
		s.logFailure(ctx, "get expired keys", err)
		return 0, err
	}

	for _, key := range keys {
		var ok bool
		err = s.retry(ctx, func() error {
			var removeErr error
			ok, removeErr = s.target.RemoveExpired(key)
			return removeErr
		})
		if err != nil {
			s.logFailure(ctx, "remove expired key", err, slog.Any("key", key))
			return removed, err
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

// retry 未设置重试间隔时只执行一次；否则按固定间隔最多尝试 sweepAttempts 次。
// 缓存关闭后不再重试。
func (s *Sweeper[K]) retry(ctx context.Context, fn func() error) error {
	if s.retryInterval <= 0 {
		return fn()
	}
	return retry.New(
		retry.Context(ctx),
		retry.Attempts(sweepAttempts),
		retry.Delay(s.retryInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrClosed)
		}),
	).Do(fn)
}

func (s *Sweeper[K]) logFailure(ctx context.Context, op string, err error, attrs ...any) {
	// 停止或关闭导致的中断不记为失败
	if ctx.Err() != nil || errors.Is(err, ErrClosed) {
		return
	}
	args := append([]any{slog.String("op", op), slog.String("error", err.Error())}, attrs...)
	s.logger.Warn("xlru: sweep aborted", args...)
}
