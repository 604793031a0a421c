package xrwlock

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// writerWeight 是写锁占用的权重，也是同时持有读锁的上限。
const writerWeight = math.MaxInt32

// RWLock 是带超时和关闭语义的读写锁。
// 必须通过 [New] 创建，零值不可用。
type RWLock struct {
	sem     *semaphore.Weighted
	timeout time.Duration

	closed    atomic.Bool
	closeCtx  context.Context
	closeFunc context.CancelFunc
}

// New 创建读写锁。
func New(opts ...Option) (*RWLock, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &RWLock{
		sem:       semaphore.NewWeighted(writerWeight),
		timeout:   o.timeout,
		closeCtx:  ctx,
		closeFunc: cancel,
	}, nil
}

// Timeout 返回每次加锁附加的超时时间，0 表示不附加。
func (l *RWLock) Timeout() time.Duration { return l.timeout }

// RLock 获取读锁。可能返回 ErrTimeout、ErrClosed 或 ctx.Err()。
func (l *RWLock) RLock(ctx context.Context) error {
	return l.acquire(ctx, 1)
}

// RUnlock 释放读锁。未持有读锁时调用会 panic。
func (l *RWLock) RUnlock() {
	l.sem.Release(1)
}

// Lock 获取写锁。可能返回 ErrTimeout、ErrClosed 或 ctx.Err()。
func (l *RWLock) Lock(ctx context.Context) error {
	return l.acquire(ctx, writerWeight)
}

// Unlock 释放写锁。未持有写锁时调用会 panic。
func (l *RWLock) Unlock() {
	l.sem.Release(writerWeight)
}

// TryRLock 非阻塞获取读锁。锁已关闭时返回 false。
func (l *RWLock) TryRLock() bool {
	return !l.closed.Load() && l.sem.TryAcquire(1)
}

// TryLock 非阻塞获取写锁。锁已关闭时返回 false。
func (l *RWLock) TryLock() bool {
	return !l.closed.Load() && l.sem.TryAcquire(writerWeight)
}

// Close 关闭锁并唤醒所有等待者。重复调用返回 ErrClosed。
func (l *RWLock) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	l.closeFunc()
	return nil
}

// Closed 报告锁是否已关闭。
func (l *RWLock) Closed() bool {
	return l.closed.Load()
}

func (l *RWLock) acquire(ctx context.Context, n int64) error {
	if ctx == nil {
		panic("xrwlock: nil Context")
	}
	if l.closed.Load() {
		return ErrClosed
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, l.timeout, ErrTimeout)
		defer cancel()
	}

	// Close 时取消等待
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	stop := context.AfterFunc(l.closeCtx, func() { cancel(ErrClosed) })
	defer stop()

	if err := l.sem.Acquire(ctx, n); err != nil {
		return acquireError(ctx, err)
	}
	// 获取成功与 Close 并发时，以关闭为准
	if l.closed.Load() {
		l.sem.Release(n)
		return ErrClosed
	}
	return nil
}

func acquireError(ctx context.Context, err error) error {
	cause := context.Cause(ctx)
	switch {
	case errors.Is(cause, ErrClosed):
		return ErrClosed
	case errors.Is(cause, ErrTimeout), errors.Is(cause, context.DeadlineExceeded):
		return ErrTimeout
	case cause != nil:
		return cause
	default:
		return err
	}
}
