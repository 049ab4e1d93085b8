package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"snitchvis/internal/model"
	"snitchvis/internal/repository"
)

type MockRenderJobRepository struct {
	mock.Mock
}

func (m *MockRenderJobRepository) Create(ctx context.Context, job *model.RenderJob) (*model.RenderJob, error) {
	args := m.Called(ctx, job)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RenderJob), args.Error(1)
}

func (m *MockRenderJobRepository) FindByID(ctx context.Context, id string) (*model.RenderJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RenderJob), args.Error(1)
}

func (m *MockRenderJobRepository) List(ctx context.Context, q repository.PageQuery) (*repository.PageResult[model.RenderJob], error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.RenderJob]), args.Error(1)
}

func (m *MockRenderJobRepository) ListByReport(ctx context.Context, reportID string) ([]model.RenderJob, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RenderJob), args.Error(1)
}

func (m *MockRenderJobRepository) ListByStatus(ctx context.Context, status model.RenderStatus) ([]model.RenderJob, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RenderJob), args.Error(1)
}

func (m *MockRenderJobRepository) Update(ctx context.Context, job *model.RenderJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}
