package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/srgjo27/eventpass/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// CapacityCache is a mock type for the ports.CapacityCache type.
type CapacityCache struct {
	mock.Mock
}

// Get provides a mock function with given fields: ctx, eventID
func (_m *CapacityCache) Get(ctx context.Context, eventID uuid.UUID) (*domain.Capacity, error) {
	ret := _m.Called(ctx, eventID)

	if len(ret) == 0 {
		panic("no return value specified for Get")
	}

	var r0 *domain.Capacity
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, uuid.UUID) (*domain.Capacity, error)); ok {
		return rf(ctx, eventID)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.Capacity)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// Generation provides a mock function with given fields: ctx, eventID
func (_m *CapacityCache) Generation(ctx context.Context, eventID uuid.UUID) (int64, error) {
	ret := _m.Called(ctx, eventID)

	if len(ret) == 0 {
		panic("no return value specified for Generation")
	}

	if rf, ok := ret.Get(0).(func(context.Context, uuid.UUID) (int64, error)); ok {
		return rf(ctx, eventID)
	}
	return ret.Get(0).(int64), ret.Error(1)
}

// Set provides a mock function with given fields: ctx, c, generation
func (_m *CapacityCache) Set(ctx context.Context, c domain.Capacity, generation int64) (bool, error) {
	ret := _m.Called(ctx, c, generation)

	if len(ret) == 0 {
		panic("no return value specified for Set")
	}

	if rf, ok := ret.Get(0).(func(context.Context, domain.Capacity, int64) (bool, error)); ok {
		return rf(ctx, c, generation)
	}
	return ret.Bool(0), ret.Error(1)
}

// Invalidate provides a mock function with given fields: ctx, eventID
func (_m *CapacityCache) Invalidate(ctx context.Context, eventID uuid.UUID) error {
	ret := _m.Called(ctx, eventID)

	if len(ret) == 0 {
		panic("no return value specified for Invalidate")
	}

	return ret.Error(0)
}

// NewCapacityCache creates a new instance of CapacityCache. It also registers
// a testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewCapacityCache(t interface {
	mock.TestingT
	Cleanup(func())
}) *CapacityCache {
	m := &CapacityCache{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
