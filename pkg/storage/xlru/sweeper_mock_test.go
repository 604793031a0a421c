package xlru

import (
	"reflect"

	"go.uber.org/mock/gomock"
)

// MockSweepTarget 是 SweepTarget 的 gomock 实现。
type MockSweepTarget[K comparable] struct {
	ctrl     *gomock.Controller
	recorder *MockSweepTargetMockRecorder[K]
}

// MockSweepTargetMockRecorder 记录 MockSweepTarget 的期望调用。
type MockSweepTargetMockRecorder[K comparable] struct {
	mock *MockSweepTarget[K]
}

// NewMockSweepTarget 创建 mock 实例。
func NewMockSweepTarget[K comparable](ctrl *gomock.Controller) *MockSweepTarget[K] {
	mock := &MockSweepTarget[K]{ctrl: ctrl}
	mock.recorder = &MockSweepTargetMockRecorder[K]{mock}
	return mock
}

// EXPECT 返回用于设置期望的 recorder。
func (m *MockSweepTarget[K]) EXPECT() *MockSweepTargetMockRecorder[K] {
	return m.recorder
}

// GetExpiredKeys mocks base method.
func (m *MockSweepTarget[K]) GetExpiredKeys() ([]K, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetExpiredKeys")
	ret0, _ := ret[0].([]K)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetExpiredKeys indicates an expected call of GetExpiredKeys.
func (mr *MockSweepTargetMockRecorder[K]) GetExpiredKeys() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetExpiredKeys",
		reflect.TypeOf((*MockSweepTarget[K])(nil).GetExpiredKeys))
}

// RemoveExpired mocks base method.
func (m *MockSweepTarget[K]) RemoveExpired(key K) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RemoveExpired", key)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// RemoveExpired indicates an expected call of RemoveExpired.
func (mr *MockSweepTargetMockRecorder[K]) RemoveExpired(key any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RemoveExpired",
		reflect.TypeOf((*MockSweepTarget[K])(nil).RemoveExpired), key)
}

var _ SweepTarget[string] = (*MockSweepTarget[string])(nil)
