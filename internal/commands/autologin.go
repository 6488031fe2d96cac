package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/diogo/askflow/internal/browser"
	"github.com/diogo/askflow/internal/config"
)

// NewAutoLoginCmd creates the auto-login command
func NewAutoLoginCmd(deps *Dependencies) *cobra.Command {
	var (
		browserName string
		list        bool
	)

	cmd := &cobra.Command{
		Use:   "auto-login",
		Short: "Extract session cookies from browser",
		Long: `Extract the site's session cookies from your browser.

This command reads cookies directly from your browser's cookie store for
the host of base_url, so there is no need to export and import them by hand.

Supported browsers: ` + SupportedBrowsersHelp() + `

IMPORTANT:
- Close the browser before running this command to avoid database locks
- You must be logged into the web application in the browser
- On macOS, you may be prompted for keychain access (Chrome uses Keychain to encrypt cookies)

Examples:
  askflow auto-login              # Auto-detect browser
  askflow auto-login -b chrome    # Extract from Chrome
  askflow auto-login -b firefox   # Extract from Firefox
  askflow auto-login --list       # List available browsers`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return runListBrowsers(deps.Stdout, browser.ListAvailableBrowsers())
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runAutoLogin(cmd.Context(), deps, browserName, cfg.BaseURL)
		},
	}

	cmd.Flags().StringVarP(&browserName, "browser", "b", "auto",
		"Browser to extract cookies from ("+SupportedBrowsersHelp()+", auto)")
	cmd.Flags().BoolVarP(&list, "list", "l", false,
		"List available browsers with cookie stores")

	return cmd
}

func runAutoLogin(ctx context.Context, deps *Dependencies, browserName, baseURL string) error {
	targetBrowser, err := browser.ParseBrowser(browserName)
	if err != nil {
		return err
	}

	w := deps.Stdout
	fmt.Fprintln(w, "Extracting cookies from browser...")
	fmt.Fprintln(w, "Note: If the browser is open, you may encounter database lock errors.")
	fmt.Fprintln(w)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := deps.ExtractCookies(ctx, targetBrowser, baseURL)
	if err != nil {
		return fmt.Errorf("failed to extract cookies: %w", err)
	}

	if err := config.ValidateCookies(result.Cookies); err != nil {
		return fmt.Errorf("extracted cookies are invalid: %w", err)
	}

	if err := config.SaveCookies(result.Cookies); err != nil {
		return fmt.Errorf("failed to save cookies: %w", err)
	}

	cookiesPath, _ := config.GetCookiesPath()
	sessionID, csrfToken := result.Cookies.Snapshot()

	fmt.Fprintf(w, "Successfully extracted cookies from %s\n", result.BrowserName)
	fmt.Fprintf(w, "Cookies saved to: %s\n", cookiesPath)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Extracted cookies:")
	fmt.Fprintf(w, "  %s: %s...\n", config.CookieSessionID, truncateValue(sessionID, 8))
	if csrfToken != "" {
		fmt.Fprintf(w, "  %s: %s...\n", config.CookieCSRFToken, truncateValue(csrfToken, 8))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "You can now use askflow to talk to the assistant!")

	return nil
}

func runListBrowsers(w io.Writer, browsers []string) error {
	if len(browsers) == 0 {
		fmt.Fprintln(w, "No browsers with cookie stores found.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Supported browsers:")
		for _, b := range browser.AllSupportedBrowsers() {
			fmt.Fprintf(w, "  - %s\n", b)
		}
		return nil
	}

	fmt.Fprintln(w, "Available browsers with cookie stores:")
	for _, b := range browsers {
		fmt.Fprintf(w, "  - %s\n", b)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Use 'askflow auto-login -b <browser>' to extract cookies from a specific browser.")

	return nil
}

func truncateValue(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// SupportedBrowsersHelp returns a help string listing supported browsers
func SupportedBrowsersHelp() string {
	browsers := browser.AllSupportedBrowsers()
	names := make([]string, len(browsers))
	for i, b := range browsers {
		names[i] = string(b)
	}
	return strings.Join(names, ", ")
}
