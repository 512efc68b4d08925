package mocks

import (
	"context"

	"drawlens/internal/gateway"

	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ListModels(ctx context.Context) []gateway.Model {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]gateway.Model)
}

func (m *MockGateway) IsUsable(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockGateway) Generate(ctx context.Context, model, prompt string, images ...string) (string, error) {
	args := m.Called(ctx, model, prompt, images)
	return args.String(0), args.Error(1)
}
