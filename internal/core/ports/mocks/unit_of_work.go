package mocks

import (
	"context"

	"github.com/srgjo27/eventpass/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// UnitOfWork is a mock type for the ports.UnitOfWork type.
type UnitOfWork struct {
	mock.Mock
}

// Do provides a mock function with given fields: ctx, fn
func (_m *UnitOfWork) Do(ctx context.Context, fn func(ports.Tx) error) error {
	ret := _m.Called(ctx, fn)

	if len(ret) == 0 {
		panic("no return value specified for Do")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, func(ports.Tx) error) error); ok {
		r0 = rf(ctx, fn)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewUnitOfWork creates a new instance of UnitOfWork. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewUnitOfWork(t interface {
	mock.TestingT
	Cleanup(func())
}) *UnitOfWork {
	m := &UnitOfWork{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
