// Package enginemock provides a gomock-based double for engine.Sender,
// the same role the teacher's netmock package fills for net.Conn/
// net.Listener in its transport tests.
package enginemock

import (
	"context"
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/tony23/pywbem/transport"
)

// MockSender is a mock of the engine.Sender interface.
type MockSender struct {
	ctrl     *gomock.Controller
	recorder *MockSenderMockRecorder
}

// MockSenderMockRecorder is the mock recorder for MockSender.
type MockSenderMockRecorder struct {
	mock *MockSender
}

// NewMockSender returns a new mock bound to ctrl.
func NewMockSender(ctrl *gomock.Controller) *MockSender {
	mock := &MockSender{ctrl: ctrl}
	mock.recorder = &MockSenderMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockSender) EXPECT() *MockSenderMockRecorder {
	return m.recorder
}

// Send implements engine.Sender.
func (m *MockSender) Send(ctx context.Context, cimMethod, cimObject string, retryIdempotent bool, body []byte) (*transport.Result, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Send", ctx, cimMethod, cimObject, retryIdempotent, body)
	ret0, _ := ret[0].(*transport.Result)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Send indicates an expected call of Send.
func (mr *MockSenderMockRecorder) Send(ctx, cimMethod, cimObject, retryIdempotent, body any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Send", reflect.TypeOf((*MockSender)(nil).Send), ctx, cimMethod, cimObject, retryIdempotent, body)
}
