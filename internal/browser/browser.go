// Package browser provides functionality to extract cookies from web browsers.
package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/chrome"
	_ "github.com/browserutils/kooky/browser/chromium"
	_ "github.com/browserutils/kooky/browser/edge"
	_ "github.com/browserutils/kooky/browser/firefox"
	_ "github.com/browserutils/kooky/browser/opera"

	"github.com/diogo/askflow/internal/config"
)

// SupportedBrowser represents a supported browser type
type SupportedBrowser string

const (
	BrowserAuto     SupportedBrowser = "auto"
	BrowserChrome   SupportedBrowser = "chrome"
	BrowserChromium SupportedBrowser = "chromium"
	BrowserFirefox  SupportedBrowser = "firefox"
	BrowserEdge     SupportedBrowser = "edge"
	BrowserOpera    SupportedBrowser = "opera"
)

// AllSupportedBrowsers returns a list of all supported browsers
func AllSupportedBrowsers() []SupportedBrowser {
	return []SupportedBrowser{
		BrowserChrome,
		BrowserChromium,
		BrowserFirefox,
		BrowserEdge,
		BrowserOpera,
	}
}

// String returns the string representation of the browser
func (b SupportedBrowser) String() string {
	return string(b)
}

// ParseBrowser parses a browser string into a SupportedBrowser
func ParseBrowser(s string) (SupportedBrowser, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return BrowserAuto, nil
	case "chrome", "google-chrome":
		return BrowserChrome, nil
	case "chromium":
		return BrowserChromium, nil
	case "firefox", "mozilla", "mozilla-firefox":
		return BrowserFirefox, nil
	case "edge", "microsoft-edge", "msedge":
		return BrowserEdge, nil
	case "opera":
		return BrowserOpera, nil
	default:
		return "", fmt.Errorf("unsupported browser: %s. Supported: chrome, chromium, firefox, edge, opera", s)
	}
}

// ExtractResult contains the result of cookie extraction
type ExtractResult struct {
	Cookies     *config.Cookies
	BrowserName string
}

// ExtractSessionCookies reads the sessionid and csrftoken cookies the browser
// holds for the host of baseURL.
func ExtractSessionCookies(ctx context.Context, browser SupportedBrowser, baseURL string) (*ExtractResult, error) {
	host, err := cookieHost(baseURL)
	if err != nil {
		return nil, err
	}
	if browser == BrowserAuto {
		return extractFromAllBrowsers(ctx, host)
	}
	return extractFromBrowser(ctx, browser, host)
}

// cookieHost returns the host cookies are stored under, without port
func cookieHost(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("invalid base URL %q: missing host", baseURL)
	}
	return strings.ToLower(host), nil
}

func extractFromAllBrowsers(ctx context.Context, host string) (*ExtractResult, error) {
	// Try browsers in order of popularity
	browsers := []SupportedBrowser{
		BrowserChrome,
		BrowserFirefox,
		BrowserEdge,
		BrowserChromium,
		BrowserOpera,
	}

	var lastErr error
	for _, browser := range browsers {
		result, err := extractFromBrowser(ctx, browser, host)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return nil, fmt.Errorf("could not find a session for %s in any browser: %w", host, lastErr)
	}
	return nil, fmt.Errorf("could not find a session for %s in any supported browser", host)
}

// extractFromBrowser tries every profile of the browser until one holds a session
func extractFromBrowser(ctx context.Context, browser SupportedBrowser, host string) (*ExtractResult, error) {
	stores := kooky.FindAllCookieStores(ctx)

	var matchingStores []kooky.CookieStore
	for _, store := range stores {
		if matchesBrowser(store.Browser(), browser) {
			matchingStores = append(matchingStores, store)
		} else {
			_ = store.Close()
		}
	}
	defer func() {
		for _, s := range matchingStores {
			_ = s.Close()
		}
	}()

	if len(matchingStores) == 0 {
		return nil, fmt.Errorf("browser %s not found or no cookie store available", browser)
	}

	var lastErr error
	for _, store := range matchingStores {
		result, err := extractCookiesFromStore(ctx, store, host)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// matchesBrowser checks if a browser name matches the target browser
func matchesBrowser(browserName string, target SupportedBrowser) bool {
	browserName = strings.ToLower(browserName)

	switch target {
	case BrowserChrome:
		return strings.Contains(browserName, "chrome") && !strings.Contains(browserName, "chromium")
	case BrowserChromium:
		return strings.Contains(browserName, "chromium")
	case BrowserFirefox:
		return strings.Contains(browserName, "firefox")
	case BrowserEdge:
		return strings.Contains(browserName, "edge")
	case BrowserOpera:
		return strings.Contains(browserName, "opera")
	default:
		return false
	}
}

func extractCookiesFromStore(ctx context.Context, store kooky.CookieStore, host string) (*ExtractResult, error) {
	var found []*kooky.Cookie
	for cookie := range store.TraverseCookies(kooky.Valid, kooky.DomainContains(host)).OnlyCookies() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		found = append(found, cookie)
	}

	displayName := store.Browser()
	if profile := store.Profile(); profile != "" {
		displayName = fmt.Sprintf("%s (profile: %s)", displayName, profile)
	}

	cookies, ok := pickSessionCookies(found, host)
	if !ok {
		return nil, fmt.Errorf("cookie %s for %s not found in %s. Please log in to the site in that browser first",
			config.CookieSessionID, host, displayName)
	}

	return &ExtractResult{Cookies: cookies, BrowserName: displayName}, nil
}

// pickSessionCookies selects sessionid and csrftoken among cookies whose
// domain contains host. A cookie set for exactly host wins over one set for a
// parent or sibling domain.
func pickSessionCookies(cookies []*kooky.Cookie, host string) (*config.Cookies, bool) {
	var sessionID, csrfToken string
	var sessionExact, csrfExact bool

	for _, cookie := range cookies {
		exact := strings.TrimPrefix(strings.ToLower(cookie.Domain), ".") == host
		switch cookie.Name {
		case config.CookieSessionID:
			if sessionID == "" || (exact && !sessionExact) {
				sessionID, sessionExact = cookie.Value, exact
			}
		case config.CookieCSRFToken:
			if csrfToken == "" || (exact && !csrfExact) {
				csrfToken, csrfExact = cookie.Value, exact
			}
		}
	}

	if sessionID == "" {
		return nil, false
	}
	return config.NewCookies(sessionID, csrfToken), true
}

// ListAvailableBrowsers returns a list of browsers that have cookie stores
func ListAvailableBrowsers() []string {
	ctx := context.Background()
	stores := kooky.FindAllCookieStores(ctx)
	var browsers []string

	seen := make(map[string]bool)
	for _, store := range stores {
		name := store.Browser()
		if !seen[name] {
			browsers = append(browsers, name)
			seen[name] = true
		}
		_ = store.Close()
	}

	return browsers
}
