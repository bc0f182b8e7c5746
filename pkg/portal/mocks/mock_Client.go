// Package mocks provides test doubles for the portal client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	model "github.com/sells-group/coi-cli/internal/model"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// PostDecision provides a mock function with given fields: ctx, documentID, d
func (_m *MockClient) PostDecision(ctx context.Context, documentID string, d model.Decision) error {
	ret := _m.Called(ctx, documentID, d)

	if len(ret) == 0 {
		panic("no return value specified for PostDecision")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, model.Decision) error); ok {
		r0 = rf(ctx, documentID, d)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewMockClient creates a new instance of MockClient. It also registers a
// cleanup function to assert the mocks expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
