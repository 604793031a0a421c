package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xlru/pkg/observability/xlog"
	"github.com/omeyang/xlru/pkg/storage/xlru"
)

// 未指定配置文件时的默认上限。
const (
	defaultMaxItems       = 10000
	defaultMaxMemoryBytes = 64 << 20
)

func defaultConfig() xlru.Config {
	return xlru.Config{
		MaxItems:       defaultMaxItems,
		MaxMemoryBytes: defaultMaxMemoryBytes,
	}
}

// loadConfig 依次应用默认值、配置文件和 XLRU_* 环境变量。
func loadConfig(cmd *cli.Command) (xlru.Config, error) {
	cfg := defaultConfig()
	if path := cmd.String("config"); path != "" {
		loaded, err := xlru.LoadConfig(path)
		if err != nil {
			return xlru.Config{}, &usageError{err: err}
		}
		cfg = loaded
	}
	cfg, err := xlru.ApplyEnv(cfg)
	if err != nil {
		return xlru.Config{}, &usageError{err: err}
	}
	return cfg, nil
}

// newLogger 按全局日志选项构建 logger，默认输出到 stderr。
func newLogger(cmd *cli.Command) (*slog.Logger, func() error, error) {
	b := xlog.New().
		SetOutput(cmd.Root().ErrWriter).
		SetLevelString(cmd.String("log-level")).
		SetFormat(cmd.String("log-format"))
	if file := cmd.String("log-file"); file != "" {
		b = b.SetRotation(file, xlog.Rotation{})
	}
	logger, cleanup, err := b.Build()
	if err != nil {
		return nil, nil, &usageError{err: err}
	}
	return logger, cleanup, nil
}

func stdout(cmd *cli.Command) io.Writer { return cmd.Root().Writer }

// createConfigCommand 创建 config 子命令。
func createConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "输出生效的配置（默认值 + 配置文件 + 环境变量）",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "输出格式 yaml/json",
				Value: string(xlru.FormatYAML),
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			format := xlru.Format(strings.ToLower(cmd.String("format")))
			data, err := xlru.MarshalConfig(cfg, format)
			if err != nil {
				return &usageError{err: err}
			}
			_, err = fmt.Fprintln(stdout(cmd), strings.TrimRight(string(data), "\n"))
			return err
		},
	}
}
