package mocks

import (
	"context"
	"github.com/stretchr/testify/mock"
)

type RefreshTokenStoreMock struct {
	mock.Mock
}

func (m *RefreshTokenStoreMock) StoreRefreshToken(ctx context.Context, userID, refreshToken string) error {
	args := m.Called(ctx, userID, refreshToken)
	return args.Error(0)
}

func (m *RefreshTokenStoreMock) ConsumeRefreshToken(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}
