package mocks

import (
	"context"
	"github.com/stretchr/testify/mock"
)

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Notify(ctx context.Context, recipientID, text string) error {
	args := m.Called(ctx, recipientID, text)
	return args.Error(0)
}
