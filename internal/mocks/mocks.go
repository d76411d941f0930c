// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/termcheck/api/schemas"
	"github.com/xkilldash9x/termcheck/internal/browser"
)

// -- Flows Mock --

// MockFlows mocks the page interactions run for each account. Expectations can
// mutate the account through Run to simulate a verdict.
type MockFlows struct {
	mock.Mock
}

func (m *MockFlows) Inspect(ctx context.Context, page browser.Page) (*schemas.PageStructure, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schemas.PageStructure), args.Error(1)
}

func (m *MockFlows) Register(ctx context.Context, page browser.Page, acc *schemas.AccountRecord) error {
	args := m.Called(ctx, page, acc)
	return args.Error(0)
}

func (m *MockFlows) Login(ctx context.Context, page browser.Page, acc *schemas.AccountRecord) error {
	args := m.Called(ctx, page, acc)
	return args.Error(0)
}

func (m *MockFlows) Search(ctx context.Context, page browser.Page, acc *schemas.AccountRecord, term string) error {
	args := m.Called(ctx, page, acc, term)
	return args.Error(0)
}

// -- TargetChecker Mock --

// MockTargetChecker mocks the pre-flight reachability check.
type MockTargetChecker struct {
	mock.Mock
}

func (m *MockTargetChecker) Check(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

// -- Helpers --

// Account extracts the *schemas.AccountRecord argument of a Register, Login
// or Search call inside a Run callback.
func Account(args mock.Arguments) *schemas.AccountRecord {
	return args.Get(2).(*schemas.AccountRecord)
}
