package gateway

import (
	"context"
	"sync"
)

// MockResponse is a canned response for the MockGateway.
type MockResponse struct {
	Answer string
	Err    error
}

// MockCall records one GenerateAnswer invocation.
type MockCall struct {
	Question string
	Context  Context
}

// MockGateway is a deterministic Gateway for testing. It returns canned
// responses in FIFO order and records all calls. When the queue is empty it
// answers with a fixed string, so tests that only care about the billing
// path need no setup.
type MockGateway struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []MockCall
}

// NewMockGateway creates a MockGateway with the given canned responses.
func NewMockGateway(responses ...MockResponse) *MockGateway {
	return &MockGateway{responses: responses}
}

// Enqueue appends canned responses to the queue.
func (m *MockGateway) Enqueue(responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
}

func (m *MockGateway) GenerateAnswer(_ context.Context, question string, qctx Context) (*Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Question: question, Context: qctx})

	if len(m.responses) == 0 {
		return &Answer{Text: "mock answer", ProviderID: m.ProviderID()}, nil
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]

	if resp.Err != nil {
		return nil, resp.Err
	}
	return &Answer{Text: resp.Answer, ProviderID: m.ProviderID()}, nil
}

// ProviderID returns "mock".
func (m *MockGateway) ProviderID() string {
	return "mock"
}

// CallCount returns the number of recorded calls.
func (m *MockGateway) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
