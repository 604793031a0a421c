// Package xrwlock 提供带超时和关闭语义的进程内读写锁。
//
// sync.RWMutex 无法超时，也无法在关闭时唤醒等待者；xrwlock 基于
// golang.org/x/sync/semaphore 的加权信号量实现：读锁占用权重 1，
// 写锁占用全部权重。信号量按 FIFO 唤醒，排队中的写锁会阻止后来的读锁，
// 写者不会饿死。
//
// # 特性
//
//   - Context 支持：RLock/Lock 支持超时和取消（ctx 不得为 nil，否则 panic）
//   - 默认超时：WithTimeout(d) 为每次加锁附加超时，超时返回 ErrTimeout
//   - TryRLock/TryLock：非阻塞获取
//   - 关闭语义：Close() 拒绝新请求并唤醒所有等待者，使其返回 ErrClosed；
//     已持有的锁不受影响，仍需正常释放
//
// # 使用示例
//
//	l, err := xrwlock.New(xrwlock.WithTimeout(3 * time.Second))
//	if err != nil {
//	    return err
//	}
//	defer l.Close()
//
//	if err := l.Lock(ctx); err != nil {
//	    return err // ErrTimeout / ErrClosed / ctx.Err()
//	}
//	defer l.Unlock()
package xrwlock
