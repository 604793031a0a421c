package xrwlock

import (
	"fmt"
	"time"
)

// Option 定义 RWLock 可选配置。
type Option func(*options)

type options struct {
	timeout time.Duration
}

// WithTimeout 设置每次加锁的超时时间。
// 超时返回 [ErrTimeout]。d == 0 表示不附加超时（默认），仅受调用方 ctx 约束；
// d < 0 时 New 返回 [ErrInvalidTimeout]。
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

func (o *options) validate() error {
	if o.timeout < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, o.timeout)
	}
	return nil
}
