package xlru

import (
	"fmt"
	"time"
)

const (
	// DefaultLockTimeout 是 LockTimeout 未设置时的加锁超时。
	DefaultLockTimeout = 3 * time.Minute

	// DefaultCleanupInterval 是 CleanupInterval 未设置时的清理周期。
	DefaultCleanupInterval = 10 * time.Minute

	// maxItemsLimit 条目数上限。
	maxItemsLimit = 1 << 24 // 16,777,216
)

// Config 定义缓存配置。在 New 中一次性校验，非法配置不会创建缓存。
type Config struct {
	// MaxItems 最大条目数，必须在 (0, 16777216] 内。
	MaxItems int `koanf:"max_items" env:"MAX_ITEMS"`

	// MaxMemoryBytes 内存上限（字节），必须大于 0。
	// 占用按 SizeFunc 的估算值记账。
	MaxMemoryBytes int64 `koanf:"max_memory_bytes" env:"MAX_MEMORY_BYTES"`

	// Policy 过期策略，零值表示不过期。
	Policy Policy `koanf:"policy" envPrefix:"POLICY_"`

	// LockTimeout 每次加锁的最长等待时间，0 表示使用 DefaultLockTimeout。
	LockTimeout time.Duration `koanf:"lock_timeout" env:"LOCK_TIMEOUT"`

	// CleanupInterval 后台清理周期，0 表示使用 DefaultCleanupInterval。
	CleanupInterval time.Duration `koanf:"cleanup_interval" env:"CLEANUP_INTERVAL"`

	// CleanupRetryInterval 清理失败后的重试间隔，0 表示不重试。
	// 设置时必须不大于 CleanupInterval。
	CleanupRetryInterval time.Duration `koanf:"cleanup_retry_interval" env:"CLEANUP_RETRY_INTERVAL"`
}

// WithDefaults 返回填充了默认值的配置副本。
func (c Config) WithDefaults() Config {
	if c.LockTimeout == 0 {
		c.LockTimeout = DefaultLockTimeout
	}
	if c.CleanupInterval == 0 {
		c.CleanupInterval = DefaultCleanupInterval
	}
	if c.Policy.Mode == "" {
		c.Policy.Mode = ModeNone
	}
	return c
}

// Validate 校验配置。未设置的时长按默认值校验。
func (c Config) Validate() error {
	c = c.WithDefaults()

	if c.MaxItems <= 0 || c.MaxItems > maxItemsLimit {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxItems, c.MaxItems)
	}
	if c.MaxMemoryBytes <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxMemory, c.MaxMemoryBytes)
	}
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	if c.LockTimeout < 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidLockTimeout, c.LockTimeout)
	}
	if c.CleanupInterval < 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidCleanupInterval, c.CleanupInterval)
	}
	return validateRetryInterval(c.CleanupInterval, c.CleanupRetryInterval)
}

func validateRetryInterval(interval, retry time.Duration) error {
	if retry < 0 || retry > interval {
		return fmt.Errorf("%w: got %s, cleanup interval %s", ErrInvalidRetryInterval, retry, interval)
	}
	return nil
}
