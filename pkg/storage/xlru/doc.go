// Package xlru 提供进程内的泛型 LRU 缓存，支持过期策略、条目数与内存双重上限、
// 带超时的读写锁、实时统计、淘汰/过期事件和后台过期清理。
//
// # 与 hashicorp/golang-lru 的区别
//
// golang-lru 的 expirable.LRU 只有条目数上限和统一 TTL。xlru 在其 simplelru
// 之上增加了：
//
//   - 内存上限：按 SizeFunc 估算的字节数记账，新条目放不下时按 LRU 顺序淘汰
//   - 过期策略：绝对过期、滑动过期或两者同时，支持单次写入覆盖 TTL
//   - 显式错误：读写返回 ErrItemNotFound、ErrItemExpired、ErrLockTimeout 等，
//     调用方必须处理
//   - 有界等待：所有加锁最多等待 Config.LockTimeout
//   - 统计：请求、命中、未命中、淘汰、过期、条目数、内存占用
//
// # 过期
//
// 过期条目在两种情况下删除：TryGet 读到时（返回 ErrItemExpired 并在后台删除），
// 以及 Sweeper 每个 CleanupInterval 周期的清理。同一条目的过期只统计和通知一次，
// 无论由哪条路径发现。
//
// 策略启用了某种过期方式、但写入既未指定 TTL 也没有 DefaultTTL 时，
// 该条目在这种方式上不过期。
//
// # 事件
//
// OnEvicted/OnExpired 注册的监听器在释放缓存锁之后同步调用。
// Remove 和 Clear 不触发事件。
//
// # 关闭
//
// Close 唤醒所有等待锁的调用、停止后台清理并等待后台删除结束。
// 之后所有操作返回 ErrClosed，Len/MemorySize 返回 0。
//
// # 配置
//
// Config 可以在代码中构造，也可以通过 LoadConfig/ParseConfig 从 yaml/json 加载，
// 再用 ApplyEnv 以 XLRU_ 前缀的环境变量覆盖。
//
// # 使用示例
//
//	cache, err := xlru.New[string, []byte](xlru.Config{
//	    MaxItems:       10000,
//	    MaxMemoryBytes: 64 << 20,
//	    Policy:         xlru.Policy{Mode: xlru.ModeSliding, DefaultTTL: 5 * time.Minute},
//	    LockTimeout:    time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//	defer cache.Close()
//
//	if err := cache.Put("user:1", data); err != nil {
//	    return err
//	}
//	v, err := cache.TryGet("user:1")
//	switch {
//	case errors.Is(err, xlru.ErrItemNotFound), errors.Is(err, xlru.ErrItemExpired):
//	    // 回源
//	case err != nil:
//	    return err
//	}
package xlru
