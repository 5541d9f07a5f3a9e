package testutil

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"

	"object-whisper/internal/app/inference"
)

// ModelCall records one Transcribe call made on a MockModel.
type ModelCall struct {
	Path string
	// FileExisted reports whether the audio file was on disk during the call.
	FileExisted bool
	Options     inference.Options
}

// MockModel is a testify mock of inference.Model that also records calls.
type MockModel struct {
	mock.Mock
	mu sync.Mutex

	ModelName   string
	CallHistory []ModelCall
}

// NewMockModel creates a MockModel bound to t.
func NewMockModel(t *testing.T) *MockModel {
	m := &MockModel{ModelName: "mock-large"}
	m.Test(t)
	return m
}

func (m *MockModel) Name() string {
	return m.ModelName
}

// Transcribe records the call, then returns what the expectation configured.
func (m *MockModel) Transcribe(ctx context.Context, path string, opts inference.Options) (*inference.Result, error) {
	_, statErr := os.Stat(path)
	m.mu.Lock()
	m.CallHistory = append(m.CallHistory, ModelCall{Path: path, FileExisted: statErr == nil, Options: opts})
	m.mu.Unlock()

	args := m.Called(ctx, path, opts.Precision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inference.Result), args.Error(1)
}

func (m *MockModel) Close() error {
	args := m.Called()
	return args.Error(0)
}

// ExpectTranscribe sets up one Transcribe call at precision.
func (m *MockModel) ExpectTranscribe(precision inference.Precision, result *inference.Result, err error) *mock.Call {
	return m.On("Transcribe", mock.Anything, mock.AnythingOfType("string"), precision).Return(result, err).Once()
}

// ExpectPanic makes the next Transcribe call panic with value.
func (m *MockModel) ExpectPanic(value any) *mock.Call {
	return m.On("Transcribe", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Run(func(mock.Arguments) { panic(value) }).Once()
}

// Calls returns a copy of the call history.
func (m *MockModel) Calls() []ModelCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ModelCall(nil), m.CallHistory...)
}

// LastCall returns the most recent call, or nil.
func (m *MockModel) LastCall() *ModelCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.CallHistory) == 0 {
		return nil
	}
	c := m.CallHistory[len(m.CallHistory)-1]
	return &c
}

// ConcurrentMockModel is a MockModel that declares itself safe for overlapping calls.
type ConcurrentMockModel struct {
	*MockModel
}

func (ConcurrentMockModel) ConcurrentSafe() bool { return true }

var (
	_ inference.Model          = (*MockModel)(nil)
	_ inference.ConcurrentSafe = ConcurrentMockModel{}
)
