package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"snitchvis/internal/model"
	"snitchvis/internal/repository"
)

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Create(ctx context.Context, rep *model.Report) (*model.Report, error) {
	args := m.Called(ctx, rep)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockReportRepository) FindByID(ctx context.Context, id string) (*model.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockReportRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Report], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Report]), args.Error(1)
}

func (m *MockReportRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReportRepository) InsertEvents(ctx context.Context, reportID string, events []model.Event) error {
	args := m.Called(ctx, reportID, events)
	return args.Error(0)
}

func (m *MockReportRepository) ListEvents(ctx context.Context, reportID string, f repository.EventFilter) ([]model.Event, error) {
	args := m.Called(ctx, reportID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Event), args.Error(1)
}

func (m *MockReportRepository) InsertSnitches(ctx context.Context, reportID string, snitches []model.Snitch) error {
	args := m.Called(ctx, reportID, snitches)
	return args.Error(0)
}

func (m *MockReportRepository) ListSnitches(ctx context.Context, reportID string) ([]model.Snitch, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Snitch), args.Error(1)
}
