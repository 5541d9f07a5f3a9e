package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"object-whisper/internal/app/accelerator"
)

// MockAccelerator is a testify mock of accelerator.Accelerator. Available
// answers from the fixed value passed to NewMockAccelerator; ReleaseCache
// goes through the mock so tests can count and order it.
type MockAccelerator struct {
	mock.Mock
	available bool
}

// NewMockAccelerator creates a MockAccelerator that reports available.
// ReleaseCache returns nil unless the test sets another expectation first.
func NewMockAccelerator(t *testing.T, available bool) *MockAccelerator {
	a := &MockAccelerator{available: available}
	a.Test(t)
	return a
}

func (a *MockAccelerator) Available(context.Context) bool {
	a.Called()
	return a.available
}

func (a *MockAccelerator) ReleaseCache(ctx context.Context) error {
	args := a.Called(ctx)
	return args.Error(0)
}

// Expect registers the default expectations: any number of probes, and
// ReleaseCache succeeding.
func (a *MockAccelerator) Expect() *MockAccelerator {
	a.On("Available").Return().Maybe()
	a.On("ReleaseCache", mock.Anything).Return(nil).Maybe()
	return a
}

var _ accelerator.Accelerator = (*MockAccelerator)(nil)
