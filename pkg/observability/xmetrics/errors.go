package xmetrics

import "errors"

var (
	// ErrCreateCounter 表示创建 OTel Counter 失败。
	ErrCreateCounter = errors.New("xmetrics: create counter failed")
	// ErrCreateHistogram 表示创建 OTel Histogram 失败。
	ErrCreateHistogram = errors.New("xmetrics: create histogram failed")
	// ErrCreateGauge 表示创建 OTel Gauge 失败。
	ErrCreateGauge = errors.New("xmetrics: create gauge failed")
	// ErrRegisterCallback 表示注册采集回调失败。
	ErrRegisterCallback = errors.New("xmetrics: register callback failed")
	// ErrNilSource 表示 RegisterCache 的快照来源为 nil。
	ErrNilSource = errors.New("xmetrics: nil snapshot source")
)
