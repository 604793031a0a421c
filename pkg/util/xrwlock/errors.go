package xrwlock

import "errors"

var (
	// ErrTimeout 表示在超时时间内未能获取锁。
	ErrTimeout = errors.New("xrwlock: lock timeout")

	// ErrClosed 表示锁已关闭。
	// Close 后调用 RLock/Lock 返回此错误，Close 时仍在等待的调用也返回此错误。
	ErrClosed = errors.New("xrwlock: closed")

	// ErrInvalidTimeout 表示超时时间为负数。
	ErrInvalidTimeout = errors.New("xrwlock: invalid timeout")
)
