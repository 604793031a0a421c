package xlog

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// DefaultMaxSizeMB 默认单个日志文件最大大小（MB）
	DefaultMaxSizeMB = 100
	// DefaultMaxBackups 默认保留的备份文件数量
	DefaultMaxBackups = 7
	// DefaultMaxAgeDays 默认保留备份的天数
	DefaultMaxAgeDays = 30

	maxSizeMB  = 10240
	maxBackups = 1024
	maxAgeDays = 3650
)

// Rotation 描述文件轮转策略。零值字段使用默认值。
type Rotation struct {
	// MaxSizeMB 单个文件超过该大小（MB）时轮转，范围 1~10240。
	MaxSizeMB int `koanf:"max_size_mb"`
	// MaxBackups 保留的备份数量，范围 0~1024。
	MaxBackups int `koanf:"max_backups"`
	// MaxAgeDays 备份保留天数，范围 0~3650。
	MaxAgeDays int `koanf:"max_age_days"`
	// Compress 是否 gzip 压缩备份。
	Compress bool `koanf:"compress"`
	// LocalTime 备份文件名是否使用本地时间，默认 UTC。
	LocalTime bool `koanf:"local_time"`
}

func (r Rotation) withDefaults() Rotation {
	if r.MaxSizeMB == 0 {
		r.MaxSizeMB = DefaultMaxSizeMB
	}
	if r.MaxBackups == 0 && r.MaxAgeDays == 0 {
		r.MaxBackups = DefaultMaxBackups
		r.MaxAgeDays = DefaultMaxAgeDays
	}
	return r
}

func (r Rotation) validate() error {
	switch {
	case r.MaxSizeMB <= 0 || r.MaxSizeMB > maxSizeMB:
		return fmt.Errorf("%w: max size %d MB, want 1~%d", ErrInvalidRotation, r.MaxSizeMB, maxSizeMB)
	case r.MaxBackups < 0 || r.MaxBackups > maxBackups:
		return fmt.Errorf("%w: max backups %d, want 0~%d", ErrInvalidRotation, r.MaxBackups, maxBackups)
	case r.MaxAgeDays < 0 || r.MaxAgeDays > maxAgeDays:
		return fmt.Errorf("%w: max age %d days, want 0~%d", ErrInvalidRotation, r.MaxAgeDays, maxAgeDays)
	}
	return nil
}

// newRotator 创建 lumberjack 写入器，父目录不存在时以 0750 创建。
func newRotator(filename string, r Rotation) (*lumberjack.Logger, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	r = r.withDefaults()
	if err := r.validate(); err != nil {
		return nil, err
	}

	path := filepath.Clean(filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("xlog: create log dir: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    r.MaxSizeMB,
		MaxBackups: r.MaxBackups,
		MaxAge:     r.MaxAgeDays,
		Compress:   r.Compress,
		LocalTime:  r.LocalTime,
	}, nil
}
