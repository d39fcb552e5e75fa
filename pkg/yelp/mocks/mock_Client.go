// Package mocks provides test doubles for the yelp client.
package mocks

import (
	"context"

	yelp "github.com/sells-group/yelp-featureserver/pkg/yelp"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Search provides a mock function with given fields: ctx, q
func (_m *MockClient) Search(ctx context.Context, q yelp.Query) (*yelp.SearchResponse, error) {
	ret := _m.Called(ctx, q)

	if len(ret) == 0 {
		panic("no return value specified for Search")
	}

	var r0 *yelp.SearchResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, yelp.Query) (*yelp.SearchResponse, error)); ok {
		return rf(ctx, q)
	}
	if rf, ok := ret.Get(0).(func(context.Context, yelp.Query) *yelp.SearchResponse); ok {
		r0 = rf(ctx, q)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*yelp.SearchResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, yelp.Query) error); ok {
		r1 = rf(ctx, q)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
