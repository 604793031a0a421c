// Package xmetrics 提供缓存的可观测性接入（tracing + metrics）。
//
// 两部分能力：
//
//   - Observer/Span：操作级观测接口，默认实现基于 OpenTelemetry，
//     为每次操作记录 span、计数和耗时
//   - RegisterCache：把缓存统计快照以 observable instruments 的形式导出，
//     采集时才读取快照，不在写路径上产生额外开销
//
// # 使用示例
//
//	obs, _ := xmetrics.NewOTelObserver()
//	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//		Component: "xlru",
//		Operation: "sweep",
//	})
//	defer span.End(xmetrics.Result{Err: err})
//
//	reg, _ := xmetrics.RegisterCache("sessions", cache.Snapshot)
//	defer reg.Unregister()
//
// # 指标命名
//
// 操作指标：
//   - xlru.operation.total
//   - xlru.operation.duration
//
// 属性：component / operation / status。
//
// 缓存指标（属性 cache）：
//   - xlru.cache.requests / hits / misses / evictions / expirations（单调计数）
//   - xlru.cache.items / bytes / hit_ratio（瞬时值）
package xmetrics
