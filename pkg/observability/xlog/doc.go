// Package xlog 基于 log/slog 构建日志记录器。
//
// 使用 Builder 配置输出目标、级别、格式与文件轮转（first-error-wins：
// 遇到第一个配置错误后，后续 Set 操作被跳过，Build 返回该错误）：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation("/var/log/xlructl.log", xlog.Rotation{MaxSizeMB: 100, MaxBackups: 3}).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
// 轮转基于 lumberjack，按文件大小切分，备份按数量和天数清理。
// 返回的 *slog.Logger 可直接传给 xlru.WithLogger。
package xlog
