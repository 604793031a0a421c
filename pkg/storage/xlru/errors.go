package xlru

import (
	"errors"

	"github.com/omeyang/xlru/internal/lrustore"
)

// 写入错误
var (
	// ErrMaxMemorySizeExceeded 表示条目无法放入内存上限：
	// 单个条目大于上限，或覆盖写后总占用会超过上限。
	ErrMaxMemorySizeExceeded = lrustore.ErrMaxMemorySizeExceeded

	// ErrStorage 表示存储层出现非预期故障。
	ErrStorage = errors.New("xlru: storage failure")
)

// 读取错误
var (
	// ErrItemNotFound 表示 key 不存在。
	ErrItemNotFound = errors.New("xlru: item not found")

	// ErrItemExpired 表示 key 存在但已过期。条目会在后台被删除。
	ErrItemExpired = errors.New("xlru: item expired")
)

var (
	// ErrLockTimeout 表示在 LockTimeout 内未能获取锁。缓存状态未被修改。
	ErrLockTimeout = errors.New("xlru: lock timeout")

	// ErrClosed 表示缓存或清理器已关闭。
	ErrClosed = errors.New("xlru: closed")

	// ErrInvalidKey 表示 key 为 nil（nil 接口、nil 指针或 nil channel）。
	ErrInvalidKey = errors.New("xlru: invalid key")
)

// 配置错误，由 New/NewSweeper/LoadConfig 返回
var (
	ErrInvalidMaxItems        = errors.New("xlru: max items must be in (0, 16777216]")
	ErrInvalidMaxMemory       = errors.New("xlru: max memory bytes must be greater than 0")
	ErrInvalidPolicy          = errors.New("xlru: invalid expiration policy")
	ErrInvalidLockTimeout     = errors.New("xlru: lock timeout must not be negative")
	ErrInvalidCleanupInterval = errors.New("xlru: cleanup interval must not be negative")
	ErrInvalidRetryInterval   = errors.New("xlru: retry interval must be in (0, cleanup interval]")

	// ErrInvalidExpiration 表示单次写入的 TTL 为负数，或生成的过期时间无效。
	ErrInvalidExpiration = lrustore.ErrInvalidExpiration

	// ErrUnsupportedFormat 表示配置文件格式不受支持（仅支持 yaml/json）。
	ErrUnsupportedFormat = errors.New("xlru: unsupported config format")

	// ErrLoadConfig 表示读取或解析配置失败。
	ErrLoadConfig = errors.New("xlru: load config failed")

	// ErrNilTarget 表示清理器的目标为 nil。
	ErrNilTarget = errors.New("xlru: nil sweep target")
)
