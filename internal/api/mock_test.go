package api

import (
	"io"
	"strings"
	"sync"

	fhttp "github.com/bogdanfinn/fhttp"
)

// mockResponse describes one canned reply of MockHttpClient
type mockResponse struct {
	status  int
	body    string
	headers map[string][]string
	err     error
	// reader replaces body when set
	reader io.Reader
}

// MockHttpClient is a scripted HTTPDoer that records every request
type MockHttpClient struct {
	mu        sync.Mutex
	responses []mockResponse
	next      int

	Requests []*fhttp.Request
	Bodies   []string
	Closed   bool
}

// NewMockHttpClient creates a MockHttpClient answering with the given responses
// in order; the last one repeats.
func NewMockHttpClient(responses ...mockResponse) *MockHttpClient {
	return &MockHttpClient{responses: responses}
}

// NewMockHttpClientWithError creates a MockHttpClient whose Do always fails
func NewMockHttpClientWithError(err error) *MockHttpClient {
	return NewMockHttpClient(mockResponse{err: err})
}

// Do implements HTTPDoer
func (m *MockHttpClient) Do(req *fhttp.Request) (*fhttp.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var body string
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		body = string(data)
	}
	m.Requests = append(m.Requests, req)
	m.Bodies = append(m.Bodies, body)

	if len(m.responses) == 0 {
		return &fhttp.Response{StatusCode: 200, Header: make(fhttp.Header), Body: io.NopCloser(strings.NewReader(""))}, nil
	}

	r := m.responses[m.next]
	if m.next < len(m.responses)-1 {
		m.next++
	}
	if r.err != nil {
		return nil, r.err
	}

	header := make(fhttp.Header)
	for k, values := range r.headers {
		for _, v := range values {
			header.Add(k, v)
		}
	}

	var reader io.Reader = strings.NewReader(r.body)
	if r.reader != nil {
		reader = r.reader
	}

	return &fhttp.Response{
		StatusCode: r.status,
		Header:     header,
		Body:       io.NopCloser(reader),
		Request:    req,
	}, nil
}

// CloseIdleConnections records that Close was called
func (m *MockHttpClient) CloseIdleConnections() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
}

func (m *MockHttpClient) lastRequest() (*fhttp.Request, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return nil, ""
	}
	return m.Requests[len(m.Requests)-1], m.Bodies[len(m.Bodies)-1]
}

// failingReader errors on first read
type failingReader struct{ err error }

func (f failingReader) Read(p []byte) (int, error) { return 0, f.err }
