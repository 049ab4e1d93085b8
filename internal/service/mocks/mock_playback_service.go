package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"snitchvis/internal/playback"
	"snitchvis/internal/service"
)

type MockPlaybackService struct {
	mock.Mock
}

func (m *MockPlaybackService) Create(ctx context.Context, reportID string, in service.CreateSessionInput) (*playback.State, error) {
	args := m.Called(ctx, reportID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*playback.State), args.Error(1)
}

func (m *MockPlaybackService) State(ctx context.Context, id string) (*playback.State, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*playback.State), args.Error(1)
}

func (m *MockPlaybackService) Control(ctx context.Context, id string, in service.ControlInput) (*playback.State, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*playback.State), args.Error(1)
}

func (m *MockPlaybackService) Frame(ctx context.Context, id string, width, height int) ([]byte, error) {
	args := m.Called(ctx, id, width, height)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockPlaybackService) SetUserEnabled(ctx context.Context, id, username string, enabled bool) (*playback.State, error) {
	args := m.Called(ctx, id, username, enabled)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*playback.State), args.Error(1)
}

func (m *MockPlaybackService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
