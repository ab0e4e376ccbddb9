package mocks

import (
	"context"

	"github.com/srgjo27/eventpass/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// Notifier is a mock type for the ports.Notifier type.
type Notifier struct {
	mock.Mock
}

// Notify provides a mock function with given fields: ctx, n
func (_m *Notifier) Notify(ctx context.Context, n domain.Notification) error {
	ret := _m.Called(ctx, n)

	if len(ret) == 0 {
		panic("no return value specified for Notify")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, domain.Notification) error); ok {
		r0 = rf(ctx, n)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// BroadcastOffer provides a mock function with given fields: ctx, offer
func (_m *Notifier) BroadcastOffer(ctx context.Context, offer *domain.TransferOffer) error {
	ret := _m.Called(ctx, offer)

	if len(ret) == 0 {
		panic("no return value specified for BroadcastOffer")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *domain.TransferOffer) error); ok {
		r0 = rf(ctx, offer)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewNotifier creates a new instance of Notifier. It also registers a testing
// interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewNotifier(t interface {
	mock.TestingT
	Cleanup(func())
}) *Notifier {
	m := &Notifier{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
