package xlru

import (
	"fmt"
	"strings"
	"time"
)

// TTLMode 指定条目使用哪种过期方式。
type TTLMode string

const (
	// ModeNone 不过期，零值等价于 ModeNone。
	ModeNone TTLMode = "none"
	// ModeAbsolute 写入后固定时长过期。
	ModeAbsolute TTLMode = "absolute"
	// ModeSliding 距最后一次访问固定时长过期。
	ModeSliding TTLMode = "sliding"
	// ModeBoth 同时启用两种方式，先到者生效。
	ModeBoth TTLMode = "both"
)

// ParseTTLMode 解析过期方式，大小写不敏感，空串视为 ModeNone。
func ParseTTLMode(s string) (TTLMode, error) {
	switch m := TTLMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeNone:
		return ModeNone, nil
	case ModeAbsolute, ModeSliding, ModeBoth:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown ttl mode %q", ErrInvalidPolicy, s)
	}
}

// Policy 定义过期策略。
type Policy struct {
	// Mode 过期方式。
	Mode TTLMode `koanf:"mode" env:"MODE"`

	// DefaultTTL 写入未指定 TTL 时使用的时长。
	// 为 0 时，未指定 TTL 的写入在已启用的过期方式上也不会过期。
	DefaultTTL time.Duration `koanf:"default_ttl" env:"DEFAULT_TTL"`
}

// Absolute 报告是否启用绝对过期。
func (p Policy) Absolute() bool { return p.Mode == ModeAbsolute || p.Mode == ModeBoth }

// Sliding 报告是否启用滑动过期。
func (p Policy) Sliding() bool { return p.Mode == ModeSliding || p.Mode == ModeBoth }

// Validate 校验策略。
func (p Policy) Validate() error {
	if _, err := ParseTTLMode(string(p.Mode)); err != nil {
		return err
	}
	if p.DefaultTTL < 0 {
		return fmt.Errorf("%w: default ttl %s is negative", ErrInvalidPolicy, p.DefaultTTL)
	}
	return nil
}

// Expiration 计算条目的过期设置。
//
// ttl > 0 时覆盖 DefaultTTL，ttl == 0 使用 DefaultTTL，ttl < 0 返回 ErrInvalidExpiration。
// 返回的绝对过期时间为零值表示不设置，滑动时长为 0 表示不设置。
func (p Policy) Expiration(ttl time.Duration, now time.Time) (absolute time.Time, sliding time.Duration, err error) {
	if ttl < 0 {
		return time.Time{}, 0, fmt.Errorf("%w: ttl %s is negative", ErrInvalidExpiration, ttl)
	}
	if ttl == 0 {
		ttl = p.DefaultTTL
	}
	if ttl == 0 {
		return time.Time{}, 0, nil
	}
	if p.Absolute() {
		absolute = now.Add(ttl)
	}
	if p.Sliding() {
		sliding = ttl
	}
	return absolute, sliding, nil
}
