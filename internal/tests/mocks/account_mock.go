package mocks

import (
	"context"
	"gcoin-shop/internal/domain/models"
	"github.com/stretchr/testify/mock"
)

type AccountProviderMock struct {
	mock.Mock
}

func (m *AccountProviderMock) GetOrCreate(ctx context.Context, userID string) (models.Account, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.Account), args.Error(1)
}
