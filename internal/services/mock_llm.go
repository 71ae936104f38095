package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/identity-crisis/pkg/chat"
)

// MockLLMAPI is a mock implementation of LLMService for testing
type MockLLMAPI struct {
	GenerateFunc func(ctx context.Context, apiKey string, req *chat.GenerateRequest) (string, error)

	// Track calls for testing
	GenerateCalls []GenerateCall

	mu sync.Mutex // protects all fields above
}

var _ LLMService = (*MockLLMAPI)(nil)

type GenerateCall struct {
	APIKey  string
	Request chat.GenerateRequest
}

// NewMockLLMAPI creates a new mock LLM service
func NewMockLLMAPI() *MockLLMAPI {
	return &MockLLMAPI{
		GenerateCalls: make([]GenerateCall, 0),
	}
}

// Generate records the call and delegates to GenerateFunc. The lock is not
// held while GenerateFunc runs so tests can block inside it.
func (m *MockLLMAPI) Generate(ctx context.Context, apiKey string, req *chat.GenerateRequest) (string, error) {
	m.mu.Lock()
	call := GenerateCall{APIKey: apiKey}
	if req != nil {
		call.Request = *req
		call.Request.Turns = append([]chat.Turn(nil), req.Turns...)
	}
	m.GenerateCalls = append(m.GenerateCalls, call)
	fn := m.GenerateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, apiKey, req)
	}

	// Default behavior
	return "Mock response", nil
}

// Reset clears all call tracking
func (m *MockLLMAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateCalls = make([]GenerateCall, 0)
}

// SetGenerateError sets up the mock to return an error on Generate
func (m *MockLLMAPI) SetGenerateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateFunc = func(ctx context.Context, apiKey string, req *chat.GenerateRequest) (string, error) {
		return "", err
	}
}

// SetReply sets up the mock to return a fixed reply
func (m *MockLLMAPI) SetReply(reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateFunc = func(ctx context.Context, apiKey string, req *chat.GenerateRequest) (string, error) {
		return reply, nil
	}
}

// GetCalls returns a copy of the call tracking data in a thread-safe way
func (m *MockLLMAPI) GetCalls() []GenerateCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]GenerateCall, len(m.GenerateCalls))
	copy(calls, m.GenerateCalls)
	return calls
}
