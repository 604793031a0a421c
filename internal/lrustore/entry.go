package lrustore

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Entry 是存储中的一个缓存条目。
//
// Value、Size 和过期设置在创建后不可变；最后访问时间在每次命中时刷新。
// 覆盖同一个 key 时整体替换为新的 Entry，而不是修改旧条目。
type Entry[V any] struct {
	value             V
	size              int64
	absoluteExpiresAt time.Time
	slidingTTL        time.Duration

	lastAccessed atomic.Int64 // UnixNano
	// expiryReported 保证同一条目的过期只被统计和通知一次。
	expiryReported atomic.Bool
}

// NewEntry 创建条目。
//
// absoluteExpiresAt 为零值表示不设置绝对过期；slidingTTL 为 0 表示不设置滑动过期。
// 绝对过期时间不晚于 now、或 slidingTTL 为负时返回 ErrInvalidExpiration；
// size 为负时返回 ErrInvalidSize。
func NewEntry[V any](value V, size int64, absoluteExpiresAt time.Time, slidingTTL time.Duration, now time.Time) (*Entry[V], error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if !absoluteExpiresAt.IsZero() && !absoluteExpiresAt.After(now) {
		return nil, fmt.Errorf("%w: absolute expiration %s is not after now", ErrInvalidExpiration, absoluteExpiresAt.Format(time.RFC3339Nano))
	}
	if slidingTTL < 0 {
		return nil, fmt.Errorf("%w: sliding ttl %s must be positive", ErrInvalidExpiration, slidingTTL)
	}

	e := &Entry[V]{
		value:             value,
		size:              size,
		absoluteExpiresAt: absoluteExpiresAt,
		slidingTTL:        slidingTTL,
	}
	e.lastAccessed.Store(now.UnixNano())
	return e, nil
}

// Value 返回条目值。
func (e *Entry[V]) Value() V { return e.value }

// Size 返回条目大小（字节）。
func (e *Entry[V]) Size() int64 { return e.size }

// AbsoluteExpiresAt 返回绝对过期时间，未设置时返回零值。
func (e *Entry[V]) AbsoluteExpiresAt() time.Time { return e.absoluteExpiresAt }

// SlidingTTL 返回滑动过期时长，未设置时返回 0。
func (e *Entry[V]) SlidingTTL() time.Duration { return e.slidingTTL }

// LastAccessed 返回最后访问时间。
func (e *Entry[V]) LastAccessed() time.Time {
	return time.Unix(0, e.lastAccessed.Load())
}

// HasExpiration 报告条目是否设置了任一过期方式。
func (e *Entry[V]) HasExpiration() bool {
	return !e.absoluteExpiresAt.IsZero() || e.slidingTTL > 0
}

// ExpiresAt 返回条目当前生效的过期时间。
// 同时设置两种过期方式时返回较早者；未设置过期时第二个返回值为 false。
func (e *Entry[V]) ExpiresAt() (time.Time, bool) {
	var at time.Time
	if !e.absoluteExpiresAt.IsZero() {
		at = e.absoluteExpiresAt
	}
	if e.slidingTTL > 0 {
		sliding := e.LastAccessed().Add(e.slidingTTL)
		if at.IsZero() || sliding.Before(at) {
			at = sliding
		}
	}
	return at, !at.IsZero()
}

// IsExpired 报告条目在 now 时刻是否已过期。
// 超过绝对过期时间，或距最后访问超过滑动时长，任一成立即过期。
func (e *Entry[V]) IsExpired(now time.Time) bool {
	if !e.absoluteExpiresAt.IsZero() && now.After(e.absoluteExpiresAt) {
		return true
	}
	if e.slidingTTL > 0 && now.After(e.LastAccessed().Add(e.slidingTTL)) {
		return true
	}
	return false
}

// MarkExpiryReported 标记条目的过期已被统计。
// 仅第一次调用返回 true，并发调用安全。
func (e *Entry[V]) MarkExpiryReported() bool {
	return e.expiryReported.CompareAndSwap(false, true)
}

func (e *Entry[V]) touch(now time.Time) {
	e.lastAccessed.Store(now.UnixNano())
}
