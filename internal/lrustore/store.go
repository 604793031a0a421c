package lrustore

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Evicted 描述一次容量淘汰。
type Evicted[K comparable, V any] struct {
	Key   K
	Value V
	Size  int64
}

// Store 是带条目数与内存双重上限的 LRU 存储。
// 必须通过 [New] 创建。所有方法并发安全。
type Store[K comparable, V any] struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[K, *Entry[V]]
	maxItems int
	maxBytes int64
	size     int64
}

// New 创建存储。
// maxItems <= 0 返回 ErrInvalidMaxItems，maxBytes <= 0 返回 ErrInvalidMaxBytes。
func New[K comparable, V any](maxItems int, maxBytes int64) (*Store[K, V], error) {
	if maxItems <= 0 {
		return nil, ErrInvalidMaxItems
	}
	if maxBytes <= 0 {
		return nil, ErrInvalidMaxBytes
	}

	// 淘汰由 Store 自己驱动（先于 Add 执行），simplelru 的容量只是兜底，
	// 因此不注册 onEvict 回调。
	lru, err := simplelru.NewLRU[K, *Entry[V]](maxItems, nil)
	if err != nil {
		return nil, fmt.Errorf("lrustore: create lru: %w", err)
	}

	return &Store[K, V]{
		lru:      lru,
		maxItems: maxItems,
		maxBytes: maxBytes,
	}, nil
}

// Get 查找条目。命中时将条目移动到头部并刷新最后访问时间。
//
// Get 不做过期判断；但已在 now 时刻过期的条目不会被刷新访问时间，
// 否则滑动过期的条目会被这次读取"复活"。
func (s *Store[K, V]) Get(key K, now time.Time) (*Entry[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lru.Get(key)
	if !ok {
		return nil, false
	}
	if !e.IsExpired(now) {
		e.touch(now)
	}
	return e, true
}

// Peek 查找条目，不改变最近使用顺序，也不刷新访问时间。
func (s *Store[K, V]) Peek(key K) (*Entry[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Peek(key)
}

// Contains 报告 key 是否存在，不改变最近使用顺序。
func (s *Store[K, V]) Contains(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Contains(key)
}

// Put 写入条目，返回本次写入触发的容量淘汰。
//
//   - 条目大于内存上限：返回 ErrMaxMemorySizeExceeded，不做任何修改
//   - key 已存在：替换旧条目并移动到头部，不淘汰其他条目；替换后超出内存上限时返回 ErrMaxMemorySizeExceeded
//   - key 不存在：先按内存淘汰尾部条目直到放得下，再按条目数淘汰一个尾部条目
//
// 即使返回错误，已发生的淘汰也会通过返回值报告。
func (s *Store[K, V]) Put(key K, e *Entry[V]) ([]Evicted[K, V], error) {
	if e == nil {
		return nil, ErrNilEntry
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e.size > s.maxBytes {
		return nil, fmt.Errorf("%w: entry size %d, limit %d", ErrMaxMemorySizeExceeded, e.size, s.maxBytes)
	}

	if old, ok := s.lru.Peek(key); ok {
		// 覆盖写不淘汰其他条目，放不下时拒绝
		if s.size-old.size+e.size > s.maxBytes {
			return nil, fmt.Errorf("%w: replacing entry of size %d with %d, in use %d, limit %d",
				ErrMaxMemorySizeExceeded, old.size, e.size, s.size, s.maxBytes)
		}
		s.size -= old.size
		s.lru.Add(key, e)
		s.size += e.size
		return nil, nil
	}

	var evicted []Evicted[K, V]
	for s.lru.Len() > 0 && e.size+s.size > s.maxBytes {
		evicted = append(evicted, s.evictOldest())
	}
	// 大小是估算值，这里再校验一次
	if e.size+s.size > s.maxBytes {
		return evicted, fmt.Errorf("%w: entry size %d, in use %d, limit %d", ErrMaxMemorySizeExceeded, e.size, s.size, s.maxBytes)
	}

	if s.lru.Len() >= s.maxItems {
		evicted = append(evicted, s.evictOldest())
	}

	s.lru.Add(key, e)
	s.size += e.size
	return evicted, nil
}

// Remove 删除条目。key 不存在时静默返回 false。
// 手动删除不是淘汰，不出现在任何淘汰报告中。
func (s *Store[K, V]) Remove(key K) (*Entry[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(key)
}

// RemoveIf 仅当 key 当前对应的条目满足 pred 时删除。
// 用于过期清理：条目在判断过期之后可能已被新的写入替换，新条目不应被删除。
func (s *Store[K, V]) RemoveIf(key K, pred func(*Entry[V]) bool) (*Entry[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lru.Peek(key)
	if !ok || (pred != nil && !pred(e)) {
		return nil, false
	}
	return s.removeLocked(key)
}

// ExpiredKeys 返回在 now 时刻已过期的 key，按从最旧到最新排列。
// 不改变最近使用顺序。
func (s *Store[K, V]) ExpiredKeys(now time.Time) []K {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []K
	for _, key := range s.lru.Keys() {
		if e, ok := s.lru.Peek(key); ok && e.IsExpired(now) {
			expired = append(expired, key)
		}
	}
	return expired
}

// Keys 返回所有 key，按从最旧到最新排列。
func (s *Store[K, V]) Keys() []K {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Keys()
}

// Clear 清空存储，内存占用归零。
func (s *Store[K, V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Purge()
	s.size = 0
}

// Len 返回条目数。
func (s *Store[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// Size 返回当前内存占用（字节），等于所有条目 Size 之和。
func (s *Store[K, V]) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// CountIsFull 报告条目数是否已达上限。
func (s *Store[K, V]) CountIsFull() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len() >= s.maxItems
}

// MemoryIsFull 报告内存占用是否已达上限。
func (s *Store[K, V]) MemoryIsFull() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size >= s.maxBytes
}

// MaxItems 返回条目数上限。
func (s *Store[K, V]) MaxItems() int { return s.maxItems }

// MaxBytes 返回内存上限（字节）。
func (s *Store[K, V]) MaxBytes() int64 { return s.maxBytes }

func (s *Store[K, V]) removeLocked(key K) (*Entry[V], bool) {
	e, ok := s.lru.Peek(key)
	if !ok {
		return nil, false
	}
	s.lru.Remove(key)
	s.size -= e.size
	return e, true
}

// evictOldest 淘汰尾部条目，调用方须持有 s.mu 且保证非空。
func (s *Store[K, V]) evictOldest() Evicted[K, V] {
	key, e, _ := s.lru.RemoveOldest()
	s.size -= e.size
	return Evicted[K, V]{Key: key, Value: e.value, Size: e.size}
}
