package remote

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"sftp-gateway/internal/model"
)

type MockDialer struct {
	mock.Mock
}

func (m *MockDialer) Dial(ctx context.Context) (Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Session), args.Error(1)
}

type MockSession struct {
	mock.Mock
}

func (m *MockSession) List(ctx context.Context, dir string) ([]model.RemoteEntry, error) {
	args := m.Called(ctx, dir)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RemoteEntry), args.Error(1)
}

func (m *MockSession) Stat(ctx context.Context, p string) (model.RemoteEntry, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(model.RemoteEntry), args.Error(1)
}

func (m *MockSession) Open(ctx context.Context, p string) (io.ReadSeekCloser, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadSeekCloser), args.Error(1)
}

func (m *MockSession) Rename(ctx context.Context, oldPath string, newPath string) error {
	args := m.Called(ctx, oldPath, newPath)
	return args.Error(0)
}

func (m *MockSession) Touch(ctx context.Context, p string, at time.Time) error {
	args := m.Called(ctx, p, at)
	return args.Error(0)
}

func (m *MockSession) MkdirAll(ctx context.Context, dir string) error {
	args := m.Called(ctx, dir)
	return args.Error(0)
}

func (m *MockSession) Delete(ctx context.Context, p string) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockSession) Close() error {
	args := m.Called()
	return args.Error(0)
}
