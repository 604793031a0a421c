package xlru

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 配置文件格式。
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// EnvPrefix 是 ApplyEnv 读取的环境变量前缀，如 XLRU_MAX_ITEMS、XLRU_POLICY_MODE。
const EnvPrefix = "XLRU_"

// LoadConfig 从文件加载配置，按扩展名（.yaml/.yml/.json）识别格式。
// 返回的配置已填充默认值并通过校验。
func LoadConfig(path string) (Config, error) {
	format, err := detectFormat(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	return ParseConfig(data, format)
}

// ParseConfig 从字节数据解析配置。时长使用字符串表示（如 "10m"）。
// 空数据得到零值配置，通常无法通过校验。
//
// 示例（yaml）：
//
//	max_items: 10000
//	max_memory_bytes: 67108864
//	policy:
//	  mode: sliding
//	  default_ttl: 5m
//	lock_timeout: 3s
//	cleanup_interval: 1m
//	cleanup_retry_interval: 5s
func ParseConfig(data []byte, format Format) (Config, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	k := koanf.New(".")
	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	return finishConfig(cfg)
}

// ApplyEnv 用环境变量覆盖配置中对应的字段，未设置的变量不影响原值。
// 返回的配置已填充默认值并通过校验。
func ApplyEnv(cfg Config) (Config, error) {
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	return finishConfig(cfg)
}

// MarshalConfig 按 format 序列化配置，输出可被 ParseConfig 读回。
// 时长输出为字符串（如 "3m0s"）。
func MarshalConfig(cfg Config, format Format) ([]byte, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	return parser.Marshal(map[string]any{
		"max_items":        cfg.MaxItems,
		"max_memory_bytes": cfg.MaxMemoryBytes,
		"policy": map[string]any{
			"mode":        string(cfg.Policy.Mode),
			"default_ttl": cfg.Policy.DefaultTTL.String(),
		},
		"lock_timeout":           cfg.LockTimeout.String(),
		"cleanup_interval":       cfg.CleanupInterval.String(),
		"cleanup_retry_interval": cfg.CleanupRetryInterval.String(),
	})
}

func finishConfig(cfg Config) (Config, error) {
	mode, err := ParseTTLMode(string(cfg.Policy.Mode))
	if err != nil {
		return Config{}, err
	}
	cfg.Policy.Mode = mode
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func detectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}
