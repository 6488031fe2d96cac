package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/atotto/clipboard"

	"github.com/diogo/askflow/internal/api"
	"github.com/diogo/askflow/internal/browser"
	"github.com/diogo/askflow/internal/chat"
	"github.com/diogo/askflow/internal/config"
	"github.com/diogo/askflow/internal/tui"
)

// AssistantClient is what the commands need from api.Client.
type AssistantClient interface {
	chat.Transport
	Init(ctx context.Context) error
	Cookies() *config.Cookies
	AskURL() string
	Close()
}

var _ AssistantClient = (*api.Client)(nil)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(ctx context.Context, transport chat.Transport, tokens chat.TokenProvider, opts tui.Options) error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewClient builds the assistant client for a base URL and a cookie set.
	NewClient func(cfg config.Config, cookies *config.Cookies, logger *slog.Logger) (AssistantClient, error)

	// LoadCookies reads the stored session cookies.
	LoadCookies func() (*config.Cookies, error)

	// ExtractCookies reads the site's session cookies from a browser store.
	ExtractCookies func(ctx context.Context, b browser.SupportedBrowser, baseURL string) (*browser.ExtractResult, error)

	// TUI is the terminal user interface.
	TUI TUIInterface

	// Clipboard receives answers when copy_to_clipboard is set.
	Clipboard func(string) error

	Stdout io.Writer
	Stderr io.Writer
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(ctx context.Context, transport chat.Transport, tokens chat.TokenProvider, opts tui.Options) error {
	return tui.RunChat(ctx, transport, tokens, opts)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewClient:      newAPIClient,
		LoadCookies:    config.LoadCookies,
		ExtractCookies: browser.ExtractSessionCookies,
		TUI:            &DefaultTUI{},
		Clipboard:      clipboard.WriteAll,
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
	}
}

func newAPIClient(cfg config.Config, cookies *config.Cookies, logger *slog.Logger) (AssistantClient, error) {
	opts := []api.ClientOption{api.WithLogger(logger)}
	if cfg.AskURL != "" {
		opts = append(opts, api.WithAskURL(cfg.AskURL))
	}
	client, err := api.NewClient(cfg.BaseURL, cookies, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}
