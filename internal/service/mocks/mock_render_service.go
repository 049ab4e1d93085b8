package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"snitchvis/internal/model"
	"snitchvis/internal/service"
)

type MockRenderService struct {
	mock.Mock
}

func (m *MockRenderService) Enqueue(ctx context.Context, reportID string, opts model.RenderOptions) (*model.RenderJob, error) {
	args := m.Called(ctx, reportID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RenderJob), args.Error(1)
}

func (m *MockRenderService) Get(ctx context.Context, id string) (*model.RenderJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RenderJob), args.Error(1)
}

func (m *MockRenderService) List(ctx context.Context, limit, offset int) (*service.RenderJobListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RenderJobListResult), args.Error(1)
}

func (m *MockRenderService) ListByReport(ctx context.Context, reportID string) ([]model.RenderJob, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RenderJob), args.Error(1)
}

func (m *MockRenderService) Start(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockRenderService) Stop() {
	m.Called()
}
