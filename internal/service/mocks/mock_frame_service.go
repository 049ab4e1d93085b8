package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"snitchvis/internal/model"
)

type MockFrameService struct {
	mock.Mock
}

func (m *MockFrameService) Frame(ctx context.Context, reportID string, atMS int64, opts model.RenderOptions) ([]byte, error) {
	args := m.Called(ctx, reportID, atMS, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
