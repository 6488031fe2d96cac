// Package config handles configuration and cookie management for askflow.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style" env:"GLAMOUR_STYLE"` // "dark", "light", "dracula", "notty" or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`
	PreserveNewLines bool   `json:"preserve_newlines"`
	TableWrap        bool   `json:"table_wrap"`
	InlineTableLinks bool   `json:"inline_table_links"`
}

// Config represents the user configuration
type Config struct {
	// BaseURL is the page root of the web application; it is fetched to
	// discover the ask endpoint and to obtain a csrftoken cookie.
	BaseURL string `json:"base_url" env:"ASKFLOW_BASE_URL"`
	// AskURL overrides the endpoint found in the page's data-ask-url attribute.
	AskURL string `json:"ask_url,omitempty" env:"ASKFLOW_ASK_URL"`
	// Verbose enables diagnostics on stderr and in the log file.
	Verbose         bool           `json:"verbose" env:"ASKFLOW_VERBOSE"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	LogFile         string         `json:"log_file,omitempty" env:"ASKFLOW_LOG_FILE"`
	Markdown        MarkdownConfig `json:"markdown"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:         "http://127.0.0.1:8000/",
		Verbose:         false,
		CopyToClipboard: false,
		Markdown:        DefaultMarkdownConfig(),
	}
}

// configDirOverride is used by tests to redirect the config directory
var configDirOverride string

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	if dir := os.Getenv("ASKFLOW_HOME"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".askflow"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory holds session cookies
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetCookiesPath returns the path to the cookies file
func GetCookiesPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "cookies.json"), nil
}

// GetLogPath returns the log file path from config, defaulting into the config dir
func GetLogPath(cfg Config) (string, error) {
	if cfg.LogFile != "" {
		return cfg.LogFile, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "askflow.log"), nil
}

// LoadFileConfig loads the defaults and the config file, without the
// environment overlay. Use it when the result is written back.
func LoadFileConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
		// defaults
	default:
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	return cfg, nil
}

// LoadConfig loads the configuration from disk and applies environment overrides
func LoadConfig() (Config, error) {
	cfg, err := LoadFileConfig()
	if err != nil {
		return cfg, err
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to read environment: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ValidateBaseURL checks that u is an absolute http(s) URL
func ValidateBaseURL(u string) error {
	parsed, err := url.Parse(u)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", u, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid base URL %q: scheme must be http or https", u)
	}
	if parsed.Host == "" {
		return fmt.Errorf("invalid base URL %q: missing host", u)
	}
	return nil
}

// Keys returns the settable config keys
func Keys() []string {
	return []string{
		"base_url",
		"ask_url",
		"verbose",
		"copy_to_clipboard",
		"log_file",
		"markdown.style",
		"markdown.enable_emoji",
		"markdown.preserve_newlines",
		"markdown.table_wrap",
		"markdown.inline_table_links",
	}
}

// Set updates a single key of cfg from its string form
func (cfg *Config) Set(key, value string) error {
	parseBool := func() (bool, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("%s expects true or false, got %q", key, value)
		}
		return b, nil
	}

	var err error
	switch strings.ToLower(key) {
	case "base_url":
		if err := ValidateBaseURL(value); err != nil {
			return err
		}
		cfg.BaseURL = value
	case "ask_url":
		cfg.AskURL = value
	case "verbose":
		cfg.Verbose, err = parseBool()
	case "copy_to_clipboard":
		cfg.CopyToClipboard, err = parseBool()
	case "log_file":
		cfg.LogFile = value
	case "markdown.style":
		cfg.Markdown.Style = value
	case "markdown.enable_emoji":
		cfg.Markdown.EnableEmoji, err = parseBool()
	case "markdown.preserve_newlines":
		cfg.Markdown.PreserveNewLines, err = parseBool()
	case "markdown.table_wrap":
		cfg.Markdown.TableWrap, err = parseBool()
	case "markdown.inline_table_links":
		cfg.Markdown.InlineTableLinks, err = parseBool()
	default:
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	return err
}
