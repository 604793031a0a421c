package xlru

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/xlru/internal/lrustore"
	"github.com/omeyang/xlru/pkg/observability/xmetrics"
	"github.com/omeyang/xlru/pkg/util/xrwlock"
)

// Cache 是带过期策略、条目数与内存双重上限的 LRU 缓存。
// 必须通过 [New] 创建，零值不可用。所有方法并发安全。
//
// 读操作（TryGet、GetExpiredKeys）持共享锁，写操作（Put、Remove、Clear）持独占锁，
// 加锁等待不超过 Config.LockTimeout，超时返回 ErrLockTimeout 且不修改任何状态。
// Close 之后所有操作返回 ErrClosed。
type Cache[K comparable, V any] struct {
	cfg      Config
	store    *lrustore.Store[K, V]
	lock     *xrwlock.RWLock
	metrics  Metrics
	sizeOf   SizeFunc[V]
	now      func() time.Time
	logger   *slog.Logger
	observer xmetrics.Observer

	evicted listeners[K, V]
	expired listeners[K, V]

	sweeper *Sweeper[K]

	closed    atomic.Bool
	closeOnce sync.Once

	// asyncMu 保护 asyncClosed，避免 Close 等待期间再登记异步删除
	asyncMu     sync.Mutex
	asyncClosed bool
	pending     sync.WaitGroup
}

// New 创建缓存。配置非法时返回对应的 ErrInvalid* 错误。
// 除非指定 WithoutSweeper，会启动周期为 Config.CleanupInterval 的后台清理。
func New[K comparable, V any](cfg Config, opts ...Option[K, V]) (*Cache[K, V], error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions[K, V]()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "xlru"))

	store, err := lrustore.New[K, V](cfg.MaxItems, cfg.MaxMemoryBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	lock, err := xrwlock.New(xrwlock.WithTimeout(cfg.LockTimeout))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLockTimeout, err)
	}

	c := &Cache[K, V]{
		cfg:      cfg,
		store:    store,
		lock:     lock,
		sizeOf:   o.sizeOf,
		now:      o.now,
		logger:   logger,
		observer: o.observer,
	}
	for _, fn := range o.onEvicted {
		c.evicted.add(fn)
	}
	for _, fn := range o.onExpired {
		c.expired.add(fn)
	}

	if !o.noSweeper {
		sweeper, err := NewSweeper[K](c, cfg.CleanupInterval, cfg.CleanupRetryInterval,
			WithSweeperLogger(logger),
			WithSweeperHook(o.sweepHook),
			WithSweeperObserver(o.observer),
		)
		if err != nil {
			return nil, err
		}
		if err := sweeper.Start(); err != nil {
			return nil, err
		}
		c.sweeper = sweeper
	}
	return c, nil
}

// Config 返回填充默认值后的配置。
func (c *Cache[K, V]) Config() Config { return c.cfg }

// Put 写入条目，过期时长使用策略的 DefaultTTL。
func (c *Cache[K, V]) Put(key K, value V) error {
	return c.put(key, value, 0)
}

// PutWithTTL 写入条目并指定过期时长，ttl == 0 使用 DefaultTTL，ttl < 0 返回 ErrInvalidExpiration。
// 过期时长只在策略启用的过期方式上生效。
//
// key 已存在时整体替换旧条目且不淘汰其他条目；新 key 放不下时按 LRU 顺序淘汰。
// 可能返回 ErrInvalidKey、ErrInvalidExpiration、ErrLockTimeout、
// ErrMaxMemorySizeExceeded、ErrStorage、ErrClosed。
func (c *Cache[K, V]) PutWithTTL(key K, value V, ttl time.Duration) error {
	return c.put(key, value, ttl)
}

func (c *Cache[K, V]) put(key K, value V, ttl time.Duration) (err error) {
	span := c.startSpan("put")
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	if c.closed.Load() {
		return ErrClosed
	}
	if isNilKey(key) {
		return ErrInvalidKey
	}

	now := c.now()
	absolute, sliding, err := c.cfg.Policy.Expiration(ttl, now)
	if err != nil {
		return err
	}
	entry, err := lrustore.NewEntry(value, c.sizeOf(value), absolute, sliding, now)
	if err != nil {
		if errors.Is(err, lrustore.ErrInvalidSize) {
			return fmt.Errorf("%w: %w", ErrStorage, err)
		}
		return err
	}

	if err := c.lock.Lock(context.Background()); err != nil {
		return c.lockError(err)
	}
	c.metrics.recordRequest()
	var evicted []lrustore.Evicted[K, V]
	err = guard(func() error {
		var putErr error
		evicted, putErr = c.store.Put(key, entry)
		return putErr
	})
	c.metrics.recordEvictions(len(evicted))
	c.syncUsage()
	c.lock.Unlock()

	c.dispatchEvicted(evicted)

	if err != nil && !errors.Is(err, ErrMaxMemorySizeExceeded) && !errors.Is(err, ErrStorage) {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return err
}

// TryGet 读取条目，命中时刷新最近使用顺序和最后访问时间。
//
//   - key 不存在：返回 ErrItemNotFound
//   - key 已过期：触发过期事件，后台删除条目，返回 ErrItemExpired
//
// 两种情况都计为未命中。另可能返回 ErrInvalidKey、ErrLockTimeout、ErrClosed。
func (c *Cache[K, V]) TryGet(key K) (value V, err error) {
	span := c.startSpan("get")
	defer func() { span.End(readResult(err)) }()

	var zero V
	if c.closed.Load() {
		return zero, ErrClosed
	}
	if isNilKey(key) {
		return zero, ErrInvalidKey
	}

	if err := c.lock.RLock(context.Background()); err != nil {
		return zero, c.lockError(err)
	}
	c.metrics.recordRequest()
	now := c.now()
	entry, ok := c.store.Get(key, now)
	if !ok {
		c.metrics.recordMiss()
		c.lock.RUnlock()
		return zero, ErrItemNotFound
	}
	if !entry.IsExpired(now) {
		c.lock.RUnlock()
		return entry.Value(), nil
	}

	c.metrics.recordMiss()
	report := c.markExpired(entry)
	c.lock.RUnlock()

	if report {
		c.expired.dispatch(c.logger, Event[K, V]{Kind: EventExpired, Key: key, Value: entry.Value(), Time: now})
	}
	c.removeAsync(key, entry)
	return zero, ErrItemExpired
}

// Remove 删除条目并返回其值。手动删除不触发任何事件。
// 可能返回 ErrItemNotFound、ErrInvalidKey、ErrLockTimeout、ErrStorage、ErrClosed。
func (c *Cache[K, V]) Remove(key K) (value V, err error) {
	span := c.startSpan("remove")
	defer func() { span.End(readResult(err)) }()

	var zero V
	if c.closed.Load() {
		return zero, ErrClosed
	}
	if isNilKey(key) {
		return zero, ErrInvalidKey
	}

	if err := c.lock.Lock(context.Background()); err != nil {
		return zero, c.lockError(err)
	}
	var (
		entry *lrustore.Entry[V]
		ok    bool
	)
	err = guard(func() error {
		entry, ok = c.store.Remove(key)
		return nil
	})
	if ok {
		c.syncUsage()
	}
	c.lock.Unlock()

	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, ErrItemNotFound
	}
	return entry.Value(), nil
}

// RemoveExpired 仅当 key 当前的条目已过期时删除它，返回是否删除。
// 删除的条目若尚未计入过期统计，则计入并触发过期事件。
// 后台清理通过此方法删除条目。
func (c *Cache[K, V]) RemoveExpired(key K) (bool, error) {
	if c.closed.Load() {
		return false, ErrClosed
	}
	if isNilKey(key) {
		return false, ErrInvalidKey
	}

	removed, err := c.removeIf(key, func(e *lrustore.Entry[V]) bool {
		return e.IsExpired(c.now())
	})
	if err != nil || removed == nil {
		return false, err
	}
	if c.markExpired(removed) {
		c.expired.dispatch(c.logger, Event[K, V]{Kind: EventExpired, Key: key, Value: removed.Value(), Time: c.now()})
	}
	return true, nil
}

// GetExpiredKeys 返回当前已过期的 key，按从最旧到最新排列，不改变最近使用顺序。
func (c *Cache[K, V]) GetExpiredKeys() ([]K, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if err := c.lock.RLock(context.Background()); err != nil {
		return nil, c.lockError(err)
	}
	defer c.lock.RUnlock()
	return c.store.ExpiredKeys(c.now()), nil
}

// Clear 清空缓存并重置统计。清空不触发任何事件。
// 只会因 ErrLockTimeout 或 ErrClosed 失败。
func (c *Cache[K, V]) Clear() (err error) {
	span := c.startSpan("clear")
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	if c.closed.Load() {
		return ErrClosed
	}
	if err := c.lock.Lock(context.Background()); err != nil {
		return c.lockError(err)
	}
	defer c.lock.Unlock()

	c.store.Clear()
	c.metrics.reset()
	return nil
}

// Len 返回条目数，可能包含尚未删除的过期条目。Close 后返回 0。
func (c *Cache[K, V]) Len() int {
	if c.closed.Load() {
		return 0
	}
	return c.store.Len()
}

// MemorySize 返回当前内存占用（字节）。Close 后返回 0。
func (c *Cache[K, V]) MemorySize() int64 {
	if c.closed.Load() {
		return 0
	}
	return c.store.Size()
}

// Keys 返回所有 key，按从最旧到最新排列。Close 后返回 nil。
func (c *Cache[K, V]) Keys() []K {
	if c.closed.Load() {
		return nil
	}
	return c.store.Keys()
}

// Metrics 返回实时统计。Close 后仍可读取最后的值。
func (c *Cache[K, V]) Metrics() *Metrics { return &c.metrics }

// Stats 返回统计快照。
func (c *Cache[K, V]) Stats() Stats { return c.metrics.Snapshot() }

// Snapshot 返回导出用的统计快照，可直接作为 xmetrics.CacheSource。
func (c *Cache[K, V]) Snapshot() xmetrics.CacheSnapshot {
	s := c.Stats()
	return xmetrics.CacheSnapshot{
		Requests:    s.Requests,
		Hits:        s.Hits,
		Misses:      s.Misses,
		Evictions:   s.Evictions,
		Expirations: s.Expirations,
		Items:       s.Items,
		Bytes:       s.Bytes,
		HitRatio:    s.HitRatio,
	}
}

// RegisterMetrics 以 name 为 cache 属性把统计导出到 OpenTelemetry。
func (c *Cache[K, V]) RegisterMetrics(name string, opts ...xmetrics.Option) (*xmetrics.Registration, error) {
	return xmetrics.RegisterCache(name, c.Snapshot, opts...)
}

// Sweeper 返回后台清理器，使用 WithoutSweeper 时返回 nil。
func (c *Cache[K, V]) Sweeper() *Sweeper[K] { return c.sweeper }

// OnEvicted 注册容量淘汰监听器，返回注销函数。
func (c *Cache[K, V]) OnEvicted(fn Listener[K, V]) (unsubscribe func()) {
	return c.evicted.add(fn)
}

// OnExpired 注册过期监听器，返回注销函数。
func (c *Cache[K, V]) OnExpired(fn Listener[K, V]) (unsubscribe func()) {
	return c.expired.add(fn)
}

// Close 关闭缓存：唤醒所有等待锁的调用（返回 ErrClosed），停止后台清理，
// 并等待进行中的后台删除结束。可重复调用，总是返回 nil。
func (c *Cache[K, V]) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		_ = c.lock.Close()
		if c.sweeper != nil {
			_ = c.sweeper.Close()
		}

		c.asyncMu.Lock()
		c.asyncClosed = true
		c.asyncMu.Unlock()
		c.pending.Wait()
	})
	return nil
}

func (c *Cache[K, V]) startSpan(op string) xmetrics.Span {
	_, span := xmetrics.Start(context.Background(), c.observer, xmetrics.SpanOptions{
		Component: "xlru",
		Operation: op,
	})
	return span
}

// readResult 把未命中记为 miss 而不是失败。
func readResult(err error) xmetrics.Result {
	if errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrItemExpired) {
		return xmetrics.Result{Status: xmetrics.StatusMiss, Err: err}
	}
	return xmetrics.Result{Err: err}
}

// markExpired 为条目计入一次过期统计，条目已计入过则返回 false。
func (c *Cache[K, V]) markExpired(e *lrustore.Entry[V]) bool {
	if !e.MarkExpiryReported() {
		return false
	}
	c.metrics.recordExpiration()
	return true
}

// removeAsync 在后台删除读取时发现的过期条目，不阻塞调用方。
// 只删除仍是 expected 的条目，期间被重新写入的值会保留。
func (c *Cache[K, V]) removeAsync(key K, expected *lrustore.Entry[V]) {
	c.asyncMu.Lock()
	defer c.asyncMu.Unlock()
	if c.asyncClosed {
		return
	}

	c.pending.Go(func() {
		_, err := c.removeIf(key, func(e *lrustore.Entry[V]) bool { return e == expected })
		if err != nil && !errors.Is(err, ErrClosed) {
			c.logger.Debug("xlru: remove expired entry failed",
				slog.Any("key", key),
				slog.String("error", err.Error()),
			)
		}
	})
}

// removeIf 在独占锁内删除满足 pred 的条目，返回被删除的条目。
func (c *Cache[K, V]) removeIf(key K, pred func(*lrustore.Entry[V]) bool) (*lrustore.Entry[V], error) {
	if err := c.lock.Lock(context.Background()); err != nil {
		return nil, c.lockError(err)
	}
	defer c.lock.Unlock()

	var removed *lrustore.Entry[V]
	err := guard(func() error {
		e, ok := c.store.RemoveIf(key, pred)
		if ok {
			removed = e
		}
		return nil
	})
	if removed != nil {
		c.syncUsage()
	}
	return removed, err
}

// syncUsage 用存储的实时值更新条目数和内存统计，调用方须持有独占锁。
func (c *Cache[K, V]) syncUsage() {
	c.metrics.setUsage(c.store.Len(), c.store.Size())
}

func (c *Cache[K, V]) dispatchEvicted(evicted []lrustore.Evicted[K, V]) {
	if len(evicted) == 0 {
		return
	}
	now := c.now()
	for _, ev := range evicted {
		c.evicted.dispatch(c.logger, Event[K, V]{Kind: EventEvicted, Key: ev.Key, Value: ev.Value, Time: now})
	}
}

func (c *Cache[K, V]) lockError(err error) error {
	switch {
	case errors.Is(err, xrwlock.ErrClosed):
		return ErrClosed
	case errors.Is(err, xrwlock.ErrTimeout):
		return fmt.Errorf("%w: waited %s", ErrLockTimeout, c.cfg.LockTimeout)
	default:
		return err
	}
}

// guard 把存储层的 panic 转换为 ErrStorage。
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStorage, r)
		}
	}()
	return fn()
}

// isNilKey 报告 key 是否为 nil。值类型的零值（0、""）是合法 key。
func isNilKey[K comparable](key K) bool {
	v := any(key)
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}

// 编译期接口检查。
var _ SweepTarget[string] = (*Cache[string, int])(nil)
