package httputil

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// Doer abstracts the single HTTP method the inference client needs, so
// tests can substitute a canned transport. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// MockDoer is a Doer returning queued responses in order, recording
// every request it sees.
type MockDoer struct {
	mu        sync.Mutex
	Requests  []*http.Request
	responses []mockResponse
	idx       int
}

type mockResponse struct {
	status int
	body   string
	err    error
}

// NewMockDoer creates an empty mock transport.
func NewMockDoer() *MockDoer {
	return &MockDoer{}
}

// AddResponse queues a response with the given status and body.
func (m *MockDoer) AddResponse(status int, body string) *MockDoer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResponse{status: status, body: body})
	return m
}

// AddError queues a transport-level error.
func (m *MockDoer) AddError(err error) *MockDoer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResponse{err: err})
	return m
}

// Do records the request and returns the next queued response.
func (m *MockDoer) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)
	if m.idx >= len(m.responses) {
		return nil, io.ErrUnexpectedEOF
	}
	r := m.responses[m.idx]
	m.idx++
	if r.err != nil {
		return nil, r.err
	}
	return &http.Response{
		StatusCode: r.status,
		Body:       io.NopCloser(bytes.NewBufferString(r.body)),
		Header:     make(http.Header),
	}, nil
}
