package xlru

import "time"

// SizeFunc 估算值占用的字节数。必须是值的纯函数，返回值不得为负。
type SizeFunc[V any] func(V) int64

// 默认估算的常量，按 64 位平台取值。
const (
	stringHeaderSize = 16 + 4
	sliceHeaderSize  = 24
	fallbackSize     = 24
)

// DefaultSizeOf 是默认的大小估算：
//
//   - nil：0
//   - string：20 + 2×len
//   - []byte：24 + len
//   - 定长数值、bool、time.Duration、time.Time：类型宽度
//   - 其他类型：固定 24
//
// 估算值仅用于内存上限记账，需要精确值时通过 WithSizeFunc 注入。
func DefaultSizeOf[V any](v V) int64 {
	switch x := any(v).(type) {
	case nil:
		return 0
	case string:
		return stringHeaderSize + 2*int64(len(x))
	case []byte:
		return sliceHeaderSize + int64(len(x))
	case bool, int8, uint8:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32, float32:
		return 4
	case int, uint, int64, uint64, float64, uintptr, complex64, time.Duration:
		return 8
	case complex128:
		return 16
	case time.Time:
		return 24
	default:
		return fallbackSize
	}
}
