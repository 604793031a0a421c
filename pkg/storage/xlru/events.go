package xlru

import (
	"log/slog"
	"slices"
	"sync"
	"time"
)

// EventKind 区分事件类型。
type EventKind uint8

const (
	// EventEvicted 条目因容量上限被淘汰。
	EventEvicted EventKind = iota + 1
	// EventExpired 条目过期。
	EventExpired
)

func (k EventKind) String() string {
	switch k {
	case EventEvicted:
		return "evicted"
	case EventExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Event 描述一次淘汰或过期。
type Event[K comparable, V any] struct {
	Kind  EventKind
	Key   K
	Value V
	Time  time.Time
}

// Listener 接收事件。
//
// 监听器在缓存锁之外同步调用，可以安全地调用缓存方法；
// 耗时逻辑应自行转为异步，否则会阻塞触发事件的调用方。
// 过期事件可能来自后台清理 goroutine，监听器中不得调用 Close。
// 监听器 panic 会被恢复并记录日志。
type Listener[K comparable, V any] func(Event[K, V])

type listenerEntry[K comparable, V any] struct {
	id uint64
	fn Listener[K, V]
}

// listeners 是可并发注册/注销的监听器列表。
type listeners[K comparable, V any] struct {
	mu     sync.RWMutex
	nextID uint64
	list   []listenerEntry[K, V]
}

// add 注册监听器，返回注销函数。注销函数可重复调用。
func (l *listeners[K, V]) add(fn Listener[K, V]) func() {
	if fn == nil {
		return func() {}
	}

	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.list = append(l.list, listenerEntry[K, V]{id: id, fn: fn})
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.list = slices.DeleteFunc(l.list, func(e listenerEntry[K, V]) bool { return e.id == id })
		})
	}
}

// dispatch 按注册顺序调用监听器。
func (l *listeners[K, V]) dispatch(logger *slog.Logger, ev Event[K, V]) {
	l.mu.RLock()
	if len(l.list) == 0 {
		l.mu.RUnlock()
		return
	}
	list := slices.Clone(l.list)
	l.mu.RUnlock()

	for _, e := range list {
		callListener(logger, e.fn, ev)
	}
}

func callListener[K comparable, V any](logger *slog.Logger, fn Listener[K, V], ev Event[K, V]) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("xlru: listener panic recovered",
				slog.String("event", ev.Kind.String()),
				slog.Any("panic", r),
			)
		}
	}()
	fn(ev)
}
