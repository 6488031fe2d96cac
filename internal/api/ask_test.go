package api

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/diogo/askflow/internal/chat"
	apierrors "github.com/diogo/askflow/internal/errors"
)

func initializedClient(t *testing.T, responses ...mockResponse) (*Client, *MockHttpClient) {
	t.Helper()
	all := append([]mockResponse{{status: 200, body: dashboardPage}}, responses...)
	mock := NewMockHttpClient(all...)
	client := newTestClient(t, mock)
	if err := client.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return client, mock
}

func TestClient_Ask_Request(t *testing.T) {
	client, mock := initializedClient(t, mockResponse{status: 200, body: `{"answer":"42"}`})

	client.Ask(context.Background(), chat.Request{Question: `What is "6 x 7"?`, CSRFToken: "tok+1"})

	req, body := mock.lastRequest()
	if req.Method != "POST" {
		t.Errorf("method = %s, want POST", req.Method)
	}
	if req.URL.String() != "https://agency.example/ai/ask/" {
		t.Errorf("URL = %s", req.URL.String())
	}
	if got := gjson.Get(body, "question").String(); got != `What is "6 x 7"?` {
		t.Errorf("question in body = %q", got)
	}

	wantHeaders := map[string]string{
		"Content-Type":     "application/json",
		"X-CSRFToken":      "tok+1",
		"X-Requested-With": "XMLHttpRequest",
		"Referer":          "https://agency.example/dashboard/",
	}
	for key, want := range wantHeaders {
		if got := req.Header.Get(key); got != want {
			t.Errorf("header %s = %q, want %q", key, got, want)
		}
	}

	cookie := req.Header.Get("Cookie")
	if !strings.Contains(cookie, "sessionid=sess-1") || !strings.Contains(cookie, "csrftoken=") {
		t.Errorf("Cookie header = %q, want sessionid and csrftoken", cookie)
	}
}

func TestClient_Ask_Outcomes(t *testing.T) {
	tests := []struct {
		name        string
		resp        mockResponse
		wantText    string
		wantFailure bool
		checkErr    func(error) bool
	}{
		{
			name:     "answer",
			resp:     mockResponse{status: 200, body: `{"answer":"42"}`},
			wantText: "42",
		},
		{
			name:     "answer with extra fields",
			resp:     mockResponse{status: 200, body: `{"answer":"Hello","sources":[]}`},
			wantText: "Hello",
		},
		{
			name:     "missing answer",
			resp:     mockResponse{status: 200, body: `{}`},
			wantText: chat.NoAnswerText,
		},
		{
			name:     "empty answer",
			resp:     mockResponse{status: 200, body: `{"answer":""}`},
			wantText: chat.NoAnswerText,
		},
		{
			name:     "non-string answer",
			resp:     mockResponse{status: 200, body: `{"answer":17}`},
			wantText: chat.NoAnswerText,
		},
		{
			name:        "malformed success body",
			resp:        mockResponse{status: 200, body: `<html>oops</html>`},
			wantText:    chat.GenericErrorText,
			wantFailure: true,
			checkErr:    apierrors.IsParseError,
		},
		{
			name:        "error with message",
			resp:        mockResponse{status: 429, body: `{"error":"Rate limited"}`},
			wantText:    "Rate limited",
			wantFailure: true,
			checkErr: func(err error) bool {
				return apierrors.GetHTTPStatus(err) == 429
			},
		},
		{
			name:        "error without message",
			resp:        mockResponse{status: 500, body: `{"detail":"x"}`},
			wantText:    chat.GenericErrorText,
			wantFailure: true,
			checkErr: func(err error) bool {
				return apierrors.GetResponseBody(err) == `{"detail":"x"}`
			},
		},
		{
			name:        "error without JSON",
			resp:        mockResponse{status: 502, body: "Bad Gateway"},
			wantText:    chat.GenericErrorText,
			wantFailure: true,
		},
		{
			name:        "csrf rejected",
			resp:        mockResponse{status: 403, body: `{"error":"CSRF verification failed"}`},
			wantText:    "CSRF verification failed",
			wantFailure: true,
			checkErr:    apierrors.IsAuthError,
		},
		{
			name:        "network failure",
			resp:        mockResponse{err: errors.New("connection reset")},
			wantText:    chat.GenericErrorText,
			wantFailure: true,
			checkErr:    apierrors.IsNetworkError,
		},
		{
			name:        "body read failure",
			resp:        mockResponse{status: 200, reader: failingReader{err: errors.New("unexpected EOF")}},
			wantText:    chat.GenericErrorText,
			wantFailure: true,
			checkErr:    apierrors.IsNetworkError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := initializedClient(t, tt.resp)

			outcome := client.Ask(context.Background(), chat.Request{Question: "q", CSRFToken: "t"})
			if outcome == nil {
				t.Fatal("Ask() returned nil outcome")
			}
			if got := outcome.Text(); got != tt.wantText {
				t.Errorf("Text() = %q, want %q", got, tt.wantText)
			}
			if chat.IsFailure(outcome) != tt.wantFailure {
				t.Errorf("IsFailure() = %v, want %v", chat.IsFailure(outcome), tt.wantFailure)
			}
			if tt.checkErr != nil {
				failure, ok := outcome.(chat.Failure)
				if !ok {
					t.Fatalf("outcome %T is not a Failure", outcome)
				}
				if !tt.checkErr(failure.Err) {
					t.Errorf("Failure.Err = %v (%T) has wrong kind", failure.Err, failure.Err)
				}
			}
		})
	}
}

func TestClient_Ask_NotInitialized(t *testing.T) {
	mock := NewMockHttpClient()
	client := newTestClient(t, mock)

	outcome := client.Ask(context.Background(), chat.Request{Question: "q"})

	failure, ok := outcome.(chat.Failure)
	if !ok {
		t.Fatalf("outcome = %T, want Failure", outcome)
	}
	if !errors.Is(failure.Err, apierrors.ErrNoAskURL) {
		t.Errorf("Failure.Err = %v, want ErrNoAskURL", failure.Err)
	}
	if len(mock.Requests) != 0 {
		t.Errorf("requests sent = %d, want 0", len(mock.Requests))
	}
}

func TestClient_Ask_ThroughController(t *testing.T) {
	client, _ := initializedClient(t, mockResponse{status: 200, body: `{"answer":"42"}`})

	controller := chat.NewController(client, client.Cookies())
	exchange, ok := controller.Submit(context.Background(), "  What is 6 x 7?  ")
	if !ok {
		t.Fatal("Submit() rejected a non-empty question")
	}
	<-exchange.Done()

	msgs := controller.Messages()
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[0].Text != "What is 6 x 7?" || !msgs[0].IsUser() {
		t.Errorf("user message = %+v", msgs[0])
	}
	if msgs[1].Pending || msgs[1].Text != "42" {
		t.Errorf("reply = %+v, want resolved 42", msgs[1])
	}
}

func TestClient_Ask_OversizedAnswer(t *testing.T) {
	long := `{"answer":"` + strings.Repeat("x", 600) + `"}`

	tests := []struct {
		name     string
		response mockResponse
		check    func(t *testing.T, outcome chat.Outcome)
	}{
		{
			name:     "success body over the limit fails instead of truncating",
			response: mockResponse{status: 200, body: long},
			check: func(t *testing.T, outcome chat.Outcome) {
				failure, ok := outcome.(chat.Failure)
				if !ok {
					t.Fatalf("outcome = %T, want Failure", outcome)
				}
				if !apierrors.IsParseError(failure.Err) || !strings.Contains(failure.Err.Error(), "too large") {
					t.Errorf("Failure.Err = %v, want a too-large parse error", failure.Err)
				}
			},
		},
		{
			name:     "body at the limit is parsed",
			response: mockResponse{status: 200, body: `{"answer":"` + strings.Repeat("y", 512-13) + `"}`},
			check: func(t *testing.T, outcome chat.Outcome) {
				if _, ok := outcome.(chat.Answer); !ok {
					t.Errorf("outcome = %#v, want Answer", outcome)
				}
			},
		},
		{
			name:     "error status keeps its kind",
			response: mockResponse{status: 500, body: strings.Repeat("z", 600)},
			check: func(t *testing.T, outcome chat.Outcome) {
				failure, ok := outcome.(chat.Failure)
				if !ok {
					t.Fatalf("outcome = %T, want Failure", outcome)
				}
				if apierrors.GetHTTPStatus(failure.Err) != 500 {
					t.Errorf("Failure.Err = %v, want HTTP 500", failure.Err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockHttpClient(mockResponse{status: 200, body: dashboardPage}, tt.response)
			client := newTestClient(t, mock, WithMaxBodyBytes(512))
			if err := client.Init(context.Background()); err != nil {
				t.Fatalf("Init() error = %v", err)
			}
			tt.check(t, client.Ask(context.Background(), chat.Request{Question: "q", CSRFToken: "t"}))
		})
	}
}
