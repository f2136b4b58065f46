package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockAuthority struct {
	mock.Mock
}

func (m *MockAuthority) Register(ctx context.Context, url string, username string, password string) error {
	args := m.Called(ctx, url, username, password)
	return args.Error(0)
}

func (m *MockAuthority) Login(ctx context.Context, url string, username string, password string, scopes []string) (string, error) {
	args := m.Called(ctx, url, username, password, scopes)
	return args.String(0), args.Error(1)
}

func (m *MockAuthority) ChangePassword(ctx context.Context, url string, sid string, password string, newPassword string) error {
	args := m.Called(ctx, url, sid, password, newPassword)
	return args.Error(0)
}

func (m *MockAuthority) Logout(ctx context.Context, url string, sid string) error {
	args := m.Called(ctx, url, sid)
	return args.Error(0)
}

func (m *MockAuthority) MintSession(ctx context.Context, url string, key string, scopes []string) (string, error) {
	args := m.Called(ctx, url, key, scopes)
	return args.String(0), args.Error(1)
}
