// Package api provides the HTTP client for the assistant endpoint of the web application.
package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/url"
	"slices"
	"sync"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	"github.com/diogo/askflow/internal/chat"
	"github.com/diogo/askflow/internal/config"
)

// DefaultMaxBodyBytes bounds how much of a response body is read
const DefaultMaxBodyBytes int64 = 1 << 20

// errBodyTooLarge is returned by readBody along with the first
// maxBodyBytes of a longer body.
var errBodyTooLarge = errors.New("response body too large")

// HTTPDoer is the part of tls_client.HttpClient the client uses
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the web application on behalf of a logged-in browser session.
type Client struct {
	httpClient     HTTPDoer
	cookies        *config.Cookies
	baseURL        *url.URL
	askOverride    string
	timeoutSeconds int
	maxBodyBytes   int64
	logger         *slog.Logger

	mu     sync.RWMutex
	askURL string
}

var _ chat.Transport = (*Client)(nil)

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithHTTPClient replaces the default TLS client (used by tests)
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithAskURL skips endpoint discovery and uses u, resolved against the base URL
func WithAskURL(u string) ClientOption {
	return func(c *Client) {
		c.askOverride = u
	}
}

// WithTimeoutSeconds sets the transport timeout of the default TLS client
func WithTimeoutSeconds(seconds int) ClientOption {
	return func(c *Client) {
		c.timeoutSeconds = seconds
	}
}

// WithMaxBodyBytes bounds response body reads
func WithMaxBodyBytes(n int64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// WithLogger sets the diagnostics logger
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Client for the application rooted at baseURL
func NewClient(baseURL string, cookies *config.Cookies, opts ...ClientOption) (*Client, error) {
	if err := config.ValidateBaseURL(baseURL); err != nil {
		return nil, err
	}
	if err := config.ValidateCookies(cookies); err != nil {
		return nil, err
	}

	parsed, _ := url.Parse(baseURL)

	client := &Client{
		cookies:        cookies,
		baseURL:        parsed,
		timeoutSeconds: 300,
		maxBodyBytes:   DefaultMaxBodyBytes,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		// Chrome profile so the site sees the same TLS fingerprint as the browser
		// the cookies came from.
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(client.timeoutSeconds),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// BaseURL returns the page root URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// AskURL returns the resolved endpoint, empty before Init
func (c *Client) AskURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.askURL
}

// Cookies returns the session cookies. They double as the chat.TokenProvider.
func (c *Client) Cookies() *config.Cookies {
	return c.cookies
}

// Close releases idle connections
func (c *Client) Close() {
	if closer, ok := c.httpClient.(interface{ CloseIdleConnections() }); ok {
		closer.CloseIdleConnections()
	}
}

// resolve makes ref absolute against the base URL
func (c *Client) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", ref, err)
	}
	return c.baseURL.ResolveReference(u).String(), nil
}

// addSessionCookies attaches the stored cookies to req
func (c *Client) addSessionCookies(req *http.Request) {
	jar := c.cookies.ToMap()
	for _, name := range slices.Sorted(maps.Keys(jar)) {
		req.AddCookie(&http.Cookie{Name: name, Value: jar[name]})
	}
}

// readBody reads at most maxBodyBytes of the response body and closes it.
// A longer body yields the prefix and errBodyTooLarge.
func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	defer func() {
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()
	if resp.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return body, err
	}
	if int64(len(body)) > c.maxBodyBytes {
		c.logger.Warn("response body truncated", "limit", c.maxBodyBytes, "status", resp.StatusCode)
		return body[:c.maxBodyBytes], fmt.Errorf("%w: more than %d bytes", errBodyTooLarge, c.maxBodyBytes)
	}
	return body, nil
}
