// xlructl 是 xlru 缓存的命令行工具。
//
// 用法:
//
//	xlructl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config      缓存配置文件（.yaml/.yml/.json），未指定时使用内置默认值
//	    --log-level   日志级别 debug/info/warn/error (默认: info)
//	    --log-format  日志格式 text/json (默认: text)
//	    --log-file    日志文件，设置后按大小轮转
//
// 环境变量 XLRU_*（如 XLRU_MAX_ITEMS、XLRU_POLICY_MODE）覆盖配置文件中的值。
//
// 命令:
//
//	config     输出生效的配置
//	simulate   并发读写负载，输出统计与 OTel 指标
//	check      运行缓存行为自检
//
// 退出码:
//
//	0: 成功
//	1: 执行失败或自检未通过
//	2: 参数或配置错误
//
// 示例:
//
//	xlructl config --format json
//	xlructl -c cache.yaml simulate --workers 8 --ops 50000 --mode sliding --ttl 2s
//	XLRU_MAX_ITEMS=100 xlructl check
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// createApp 创建 CLI 应用。
func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xlructl",
		Usage:     "xlru 缓存命令行工具",
		Version:   fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "缓存配置文件（.yaml/.yml/.json）",
				Sources: cli.EnvVars("XLRUCTL_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "日志级别 debug/info/warn/error",
				Value:   "info",
				Sources: cli.EnvVars("XLRUCTL_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "日志格式 text/json",
				Value: "text",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "日志文件，设置后按大小轮转",
			},
		},
		Commands: []*cli.Command{
			createConfigCommand(),
			createSimulateCommand(),
			createCheckCommand(),
		},
		// 退出码由 run() 统一映射，不让 urfave/cli 直接 os.Exit
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(stderr, err)
			}
		},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := createApp(stdout, stderr)
	if err := app.Run(ctx, args); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		if isCLIUsageError(err) {
			return 2
		}
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}

// exitError 表示输出已完成、只需设置退出码的失败。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// usageError 表示参数或配置错误。
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

// isCLIUsageError 识别 urfave/cli 自身产生的参数错误，错误详情已由框架输出。
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, s := range []string{
		"flag provided but not defined",
		"invalid value",
		"No help topic for",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
