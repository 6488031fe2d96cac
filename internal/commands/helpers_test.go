package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/diogo/askflow/internal/browser"
	"github.com/diogo/askflow/internal/chat"
	"github.com/diogo/askflow/internal/config"
	"github.com/diogo/askflow/internal/tui"
)

const testAskURL = "http://127.0.0.1:8000/ai/ask/"

// fakeClient is an AssistantClient answering every question with outcome
type fakeClient struct {
	mu      sync.Mutex
	initErr error
	outcome chat.Outcome
	cookies *config.Cookies

	inited bool
	closed bool
	asked  []chat.Request
}

func (f *fakeClient) Ask(_ context.Context, req chat.Request) chat.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, req)
	return f.outcome
}

func (f *fakeClient) Init(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inited = true
	return f.initErr
}

func (f *fakeClient) Cookies() *config.Cookies { return f.cookies }
func (f *fakeClient) AskURL() string           { return testAskURL }

func (f *fakeClient) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeClient) requests() []chat.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chat.Request(nil), f.asked...)
}

// fakeTUI records the RunChat call instead of starting bubbletea
type fakeTUI struct {
	called    bool
	transport chat.Transport
	tokens    chat.TokenProvider
	opts      tui.Options
	err       error
}

func (f *fakeTUI) RunChat(_ context.Context, transport chat.Transport, tokens chat.TokenProvider, opts tui.Options) error {
	f.called = true
	f.transport = transport
	f.tokens = tokens
	f.opts = opts
	return f.err
}

type testEnv struct {
	deps      *Dependencies
	client    *fakeClient
	tui       *fakeTUI
	stdout    *bytes.Buffer
	stderr    *bytes.Buffer
	clipboard []string
	dir       string
	// clientCfg is the config NewClient was called with
	clientCfg config.Config
}

// unsetEnv removes key for the duration of the test
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

// isolate points the config dir at a temp dir, clears the environment
// overrides and resets the global flags
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ASKFLOW_HOME", dir)
	for _, key := range []string{"ASKFLOW_BASE_URL", "ASKFLOW_ASK_URL", "ASKFLOW_VERBOSE", "ASKFLOW_LOG_FILE", "GLAMOUR_STYLE"} {
		unsetEnv(t, key)
	}

	base, ask, verbose := baseURLFlag, askURLFlag, verboseFlag
	baseURLFlag, askURLFlag, verboseFlag = "", "", false
	t.Cleanup(func() {
		baseURLFlag, askURLFlag, verboseFlag = base, ask, verbose
	})
	return dir
}

// newTestEnv isolates the config and wires fakes into Dependencies. The
// markdown style is notty so rendered answers carry no escape codes.
func newTestEnv(t *testing.T, outcome chat.Outcome) *testEnv {
	t.Helper()
	dir := isolate(t)

	cfg := config.DefaultConfig()
	cfg.Markdown.Style = "notty"
	if err := config.SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	env := &testEnv{
		client: &fakeClient{outcome: outcome, cookies: config.NewCookies("sess-1", "tok-1")},
		tui:    &fakeTUI{},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		dir:    dir,
	}
	env.deps = &Dependencies{
		NewClient: func(cfg config.Config, cookies *config.Cookies, _ *slog.Logger) (AssistantClient, error) {
			env.clientCfg = cfg
			return env.client, nil
		},
		LoadCookies: func() (*config.Cookies, error) {
			return config.NewCookies("sess-1", "tok-1"), nil
		},
		ExtractCookies: func(context.Context, browser.SupportedBrowser, string) (*browser.ExtractResult, error) {
			return &browser.ExtractResult{Cookies: config.NewCookies("sess-from-browser", "csrf-from-browser"), BrowserName: "firefox"}, nil
		},
		TUI: env.tui,
		Clipboard: func(s string) error {
			env.clipboard = append(env.clipboard, s)
			return nil
		},
		Stdout: env.stdout,
		Stderr: env.stderr,
	}
	return env
}
