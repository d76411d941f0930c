// internal/mocks/mocks_test.go
package mocks_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/termcheck/api/schemas"
	"github.com/xkilldash9x/termcheck/internal/mocks"
	"github.com/xkilldash9x/termcheck/internal/orchestrator"
)

var (
	_ orchestrator.Flows  = (*mocks.MockFlows)(nil)
	_ orchestrator.TargetChecker = (*mocks.MockTargetChecker)(nil)
)

func TestMockFlows_RunCanMutateAccount(t *testing.T) {
	m := new(mocks.MockFlows)
	m.On("Login", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { mocks.Account(args).MarkLoggedIn(true) }).
		Return(nil)

	acc := schemas.NewAccountRecord(1, "u", "p")
	assert.NoError(t, m.Login(context.Background(), nil, acc))
	assert.True(t, acc.LoginSuccessful)
	m.AssertExpectations(t)
}

func TestMockFlows_InspectNil(t *testing.T) {
	m := new(mocks.MockFlows)
	m.On("Inspect", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	ps, err := m.Inspect(context.Background(), nil)
	assert.Nil(t, ps)
	assert.ErrorIs(t, err, assert.AnError)
}
