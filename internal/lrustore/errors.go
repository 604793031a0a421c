package lrustore

import "errors"

var (
	// ErrMaxMemorySizeExceeded 表示条目大小超过内存上限，即使清空存储也无法放下。
	ErrMaxMemorySizeExceeded = errors.New("xlru: max memory size exceeded")

	// ErrInvalidExpiration 表示条目的过期设置无效：
	// 绝对过期时间不晚于当前时间，或滑动过期时长为负。
	ErrInvalidExpiration = errors.New("xlru: invalid expiration")

	// ErrInvalidSize 表示条目大小为负。
	ErrInvalidSize = errors.New("xlru: entry size must not be negative")

	// ErrInvalidMaxItems 表示条目数上限无效。
	ErrInvalidMaxItems = errors.New("xlru: max items must be greater than 0")

	// ErrInvalidMaxBytes 表示内存上限无效。
	ErrInvalidMaxBytes = errors.New("xlru: max memory bytes must be greater than 0")

	// ErrNilEntry 表示传入了 nil 条目。
	ErrNilEntry = errors.New("xlru: nil entry")
)
