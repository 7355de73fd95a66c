package app

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/andyballingall/cdbtidy/internal/tool"
)

const testWorkDir = "/src/pe-project"

type MockManager struct {
	mock.Mock
}

func (m *MockManager) WorkDir() string {
	return testWorkDir
}

func (m *MockManager) Tidy(ctx context.Context, to TidyOptions, out OutputOptions) error {
	args := m.Called(ctx, to, out)
	return args.Error(0)
}

func (m *MockManager) WatchTidy(ctx context.Context, to TidyOptions, out OutputOptions,
	readyChan chan<- struct{},
) error {
	args := m.Called(ctx, to, out, readyChan)
	return args.Error(0)
}

func (m *MockManager) Format(ctx context.Context, fo FormatOptions, out OutputOptions) error {
	args := m.Called(ctx, fo, out)
	return args.Error(0)
}

func (m *MockManager) WatchFormat(ctx context.Context, fo FormatOptions, out OutputOptions,
	readyChan chan<- struct{},
) error {
	args := m.Called(ctx, fo, out, readyChan)
	return args.Error(0)
}

func (m *MockManager) RenderDatabase() ([]byte, error) {
	args := m.Called()
	res, _ := args.Get(0).([]byte)
	return res, args.Error(1)
}

func (m *MockManager) Clean() ([]string, error) {
	args := m.Called()
	res, _ := args.Get(0).([]string)
	return res, args.Error(1)
}

// fakeRunner records invocations and delegates to fn.
type fakeRunner struct {
	mu    sync.Mutex
	calls []tool.Invocation
	fn    func(ctx context.Context, inv tool.Invocation) error
}

func (f *fakeRunner) Run(ctx context.Context, inv tool.Invocation) error {
	f.mu.Lock()
	f.calls = append(f.calls, inv)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(ctx, inv)
	}
	return nil
}

func (f *fakeRunner) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		names = append(names, c.Name)
	}
	return names
}
