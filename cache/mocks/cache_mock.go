package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetSession(ctx context.Context, kind string, id string) ([]byte, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCache) SetSession(ctx context.Context, kind string, id string, data []byte) error {
	args := m.Called(ctx, kind, id, data)
	return args.Error(0)
}

func (m *MockCache) InvalidateSessions(ctx context.Context, kind string, ids []string) error {
	args := m.Called(ctx, kind, ids)
	return args.Error(0)
}
