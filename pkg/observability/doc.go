// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 基于 log/slog 的日志构建，支持文件轮转
//   - xmetrics: 操作级 tracing/metrics 与缓存统计的 OpenTelemetry 导出
package observability
