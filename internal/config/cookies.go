package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	apierrors "github.com/diogo/askflow/internal/errors"
)

// Cookie names used by the web application
const (
	CookieSessionID = "sessionid"
	CookieCSRFToken = "csrftoken"
)

// Cookies represents the session cookies of the web application
type Cookies struct {
	mu        sync.RWMutex `json:"-"`
	SessionID string       `json:"sessionid"`
	CSRFToken string       `json:"csrftoken,omitempty"`
}

// NewCookies creates a Cookies value
func NewCookies(sessionID, csrfToken string) *Cookies {
	return &Cookies{SessionID: sessionID, CSRFToken: csrfToken}
}

// GetSessionID returns the sessionid cookie in a thread-safe manner
func (c *Cookies) GetSessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.SessionID
}

// GetCSRFToken returns the raw csrftoken cookie in a thread-safe manner
func (c *Cookies) GetCSRFToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.CSRFToken
}

// SetCSRFToken updates the csrftoken cookie (thread-safe)
func (c *Cookies) SetCSRFToken(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CSRFToken = value
}

// Snapshot returns both cookies atomically
func (c *Cookies) Snapshot() (sessionID, csrfToken string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.SessionID, c.CSRFToken
}

// Token returns the decoded csrftoken value, or "" when absent.
// Cookie values are stored URL-encoded, as a browser would send them.
func (c *Cookies) Token() string {
	raw := c.GetCSRFToken()
	if raw == "" {
		return ""
	}
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ToMap converts cookies to a map for HTTP requests (thread-safe)
func (c *Cookies) ToMap() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m := map[string]string{
		CookieSessionID: c.SessionID,
	}
	if c.CSRFToken != "" {
		m[CookieCSRFToken] = c.CSRFToken
	}
	return m
}

// CookieListItem represents a cookie in browser export format
type CookieListItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LoadCookies loads cookies from the cookies file
func LoadCookies() (*Cookies, error) {
	cookiesPath, err := GetCookiesPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(cookiesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w. Please import cookies first:\n  askflow import-cookies <path-to-cookies.json>\nor run:\n  askflow auto-login", apierrors.ErrNoCookies)
		}
		return nil, fmt.Errorf("failed to read cookies file: %w", err)
	}

	return parseCookies(data)
}

// parseCookies parses cookies from JSON data.
// Supports both list format [{name, value}] and dict format {name: value}.
func parseCookies(data []byte) (*Cookies, error) {
	var dictFormat map[string]string
	if err := json.Unmarshal(data, &dictFormat); err == nil {
		sessionID, ok := dictFormat[CookieSessionID]
		if !ok || sessionID == "" {
			return nil, fmt.Errorf("missing required cookie: %s", CookieSessionID)
		}
		return NewCookies(sessionID, dictFormat[CookieCSRFToken]), nil
	}

	var listFormat []CookieListItem
	if err := json.Unmarshal(data, &listFormat); err == nil {
		cookies := &Cookies{}
		for _, item := range listFormat {
			switch item.Name {
			case CookieSessionID:
				cookies.SessionID = item.Value
			case CookieCSRFToken:
				cookies.CSRFToken = item.Value
			}
		}

		if cookies.SessionID == "" {
			return nil, fmt.Errorf("missing required cookie: %s", CookieSessionID)
		}
		return cookies, nil
	}

	return nil, fmt.Errorf("invalid cookies format: expected list [{name, value}] or dict {name: value}")
}

// SaveCookies saves cookies to the cookies file
func SaveCookies(cookies *Cookies) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	sessionID, csrfToken := cookies.Snapshot()

	listFormat := []CookieListItem{
		{Name: CookieSessionID, Value: sessionID},
	}
	if csrfToken != "" {
		listFormat = append(listFormat, CookieListItem{Name: CookieCSRFToken, Value: csrfToken})
	}

	data, err := json.MarshalIndent(listFormat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}

	if err := os.WriteFile(filepath.Join(configDir, "cookies.json"), data, 0o600); err != nil {
		return fmt.Errorf("failed to write cookies file: %w", err)
	}

	return nil
}

// ImportCookies imports cookies from a source file
func ImportCookies(sourcePath string) (*Cookies, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("source file not found: %s", sourcePath)
		}
		return nil, fmt.Errorf("could not read file: %w", err)
	}

	cookies, err := parseCookies(data)
	if err != nil {
		return nil, err
	}

	return cookies, SaveCookies(cookies)
}

// ValidateCookies checks if cookies are usable
func ValidateCookies(cookies *Cookies) error {
	if cookies == nil {
		return apierrors.ErrNoCookies
	}
	if cookies.GetSessionID() == "" {
		return fmt.Errorf("missing required cookie: %s", CookieSessionID)
	}
	return nil
}
