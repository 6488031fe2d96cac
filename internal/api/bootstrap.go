package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	http "github.com/bogdanfinn/fhttp"
	"golang.org/x/net/html"

	"github.com/diogo/askflow/internal/config"
	apierrors "github.com/diogo/askflow/internal/errors"
)

// AskURLAttribute is the page-root attribute carrying the endpoint URL
const AskURLAttribute = "data-ask-url"

// Init loads the page root once, the way a browser would before the chat box
// is usable: it picks up a fresh csrftoken cookie and finds the ask endpoint.
func (c *Client) Init(ctx context.Context) error {
	pageURL := c.baseURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return fmt.Errorf("create page request: %w", err)
	}
	for key, value := range pageHeaders() {
		req.Header.Set(key, value)
	}
	c.addSessionCookies(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apierrors.NewNetworkError("load page", pageURL, err)
	}

	body, readErr := c.readBody(resp)

	if token := csrfFromResponse(resp); token != "" {
		c.cookies.SetCSRFToken(token)
		c.logger.Debug("csrftoken refreshed from page")
	}

	if isAuthStatus(resp.StatusCode) {
		return apierrors.NewAuthErrorWithEndpoint(
			authMessage(resp),
			pageURL,
			resp.StatusCode,
		)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apierrors.NewAPIError(resp.StatusCode, pageURL, "failed to load page").WithBody(string(body))
	}
	// the attribute sits on <html> or <body>, so a cut-off page is still scanned
	if readErr != nil && !errors.Is(readErr, errBodyTooLarge) {
		return apierrors.NewNetworkError("read page", pageURL, readErr)
	}

	ref := c.askOverride
	if ref == "" {
		found, ok, err := FindAskURL(body)
		if err != nil {
			return apierrors.NewParseError(err.Error(), AskURLAttribute)
		}
		if !ok {
			return fmt.Errorf("%w: no %s attribute at %s (set ask_url in config)", apierrors.ErrNoAskURL, AskURLAttribute, pageURL)
		}
		ref = found
	}

	askURL, err := c.resolve(ref)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.askURL = askURL
	c.mu.Unlock()

	c.logger.Info("client initialized", "ask_url", askURL, "has_csrftoken", c.cookies.GetCSRFToken() != "")
	return nil
}

// FindAskURL returns the value of the first data-ask-url attribute in the
// document. The html and body elements are checked before the rest.
func FindAskURL(document []byte) (string, bool, error) {
	root, err := html.Parse(bytes.NewReader(document))
	if err != nil {
		return "", false, fmt.Errorf("parse page: %w", err)
	}

	type match struct {
		tag   string
		value string
	}
	var matches []match

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if v, ok := attr(n, AskURLAttribute); ok {
				matches = append(matches, match{tag: n.Data, value: v})
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	if len(matches) == 0 {
		return "", false, nil
	}
	for _, m := range matches {
		if m.tag == "html" || m.tag == "body" {
			return m.value, true, nil
		}
	}
	return matches[0].value, true, nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			v := strings.TrimSpace(a.Val)
			return v, v != ""
		}
	}
	return "", false
}

// csrfFromResponse returns the csrftoken set by the response, if any
func csrfFromResponse(resp *http.Response) string {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == config.CookieCSRFToken && cookie.Value != "" {
			return cookie.Value
		}
	}
	return ""
}

// isAuthStatus reports statuses the site uses for "not logged in"
func isAuthStatus(status int) bool {
	switch status {
	case http.StatusFound, http.StatusSeeOther, http.StatusTemporaryRedirect,
		http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}

func authMessage(resp *http.Response) string {
	if loc := resp.Header.Get("Location"); loc != "" {
		return fmt.Sprintf("redirected to %s, session cookie is missing or expired", loc)
	}
	return fmt.Sprintf("server refused the session (status %d)", resp.StatusCode)
}

func pageHeaders() map[string]string {
	return map[string]string{
		"Accept":          "text/html,application/xhtml+xml",
		"Accept-Language": "en-US,en;q=0.9",
		"User-Agent":      userAgent,
	}
}

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
