package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/use-agent/fedscrape/engine"
)

// MockSession is a mock implementation of engine.Session.
type MockSession struct {
	mock.Mock
}

func (m *MockSession) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSession) Navigate(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockSession) Reload(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSession) Section(ctx context.Context, q engine.SectionQuery) (engine.Section, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(engine.Section), args.Error(1)
}

func (m *MockSession) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockSection is a mock implementation of engine.Section.
type MockSection struct {
	mock.Mock
}

func (m *MockSection) Paragraphs(ctx context.Context) ([]engine.Element, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]engine.Element), args.Error(1)
}

// MockElement is a mock implementation of engine.Element.
type MockElement struct {
	mock.Mock
}

func (m *MockElement) Text(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
