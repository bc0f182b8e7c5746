// Package mocks provides test doubles for the extraction service.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	model "github.com/sells-group/coi-cli/internal/model"
)

// MockService is a mock type for the Service interface.
type MockService struct {
	mock.Mock
}

// Extract provides a mock function with given fields: ctx, pdfPath
func (_m *MockService) Extract(ctx context.Context, pdfPath string) (map[string]model.Policy, error) {
	ret := _m.Called(ctx, pdfPath)

	if len(ret) == 0 {
		panic("no return value specified for Extract")
	}

	var r0 map[string]model.Policy
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (map[string]model.Policy, error)); ok {
		return rf(ctx, pdfPath)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) map[string]model.Policy); ok {
		r0 = rf(ctx, pdfPath)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(map[string]model.Policy)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, pdfPath)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockService creates a new instance of MockService. It also registers a
// cleanup function to assert the mocks expectations.
func NewMockService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockService {
	m := &MockService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
