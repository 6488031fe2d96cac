package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/diogo/askflow/internal/config"
	"github.com/diogo/askflow/internal/logging"
)

// loadConfig reads the config file and environment, then applies the
// global flags on top.
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cfg, err
	}
	return applyGlobalFlags(cfg)
}

func applyGlobalFlags(cfg config.Config) (config.Config, error) {
	if baseURLFlag != "" {
		cfg.BaseURL = baseURLFlag
	}
	if askURLFlag != "" {
		cfg.AskURL = askURLFlag
	}
	if verboseFlag {
		cfg.Verbose = true
	}
	return cfg, config.ValidateBaseURL(cfg.BaseURL)
}

// openLogger returns the file logger when verbose or log_file is set.
// Logging problems never stop a command.
func openLogger(cfg config.Config, stderr io.Writer) (*slog.Logger, io.Closer) {
	nop := io.NopCloser(nil)
	if !cfg.Verbose && cfg.LogFile == "" {
		return logging.Discard(), nop
	}

	path, err := config.GetLogPath(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: logging disabled: %v\n", err)
		return logging.Discard(), nop
	}

	logger, closer, err := logging.New(logging.Options{Path: path, Verbose: cfg.Verbose})
	if err != nil {
		fmt.Fprintf(stderr, "Warning: logging disabled: %v\n", err)
		return logging.Discard(), nop
	}
	return logger, closer
}

// connect loads the stored cookies and initializes a client against the
// configured site.
func connect(ctx context.Context, deps *Dependencies, cfg config.Config, logger *slog.Logger) (AssistantClient, error) {
	cookies, err := deps.LoadCookies()
	if err != nil {
		return nil, err
	}
	if err := config.ValidateCookies(cookies); err != nil {
		return nil, err
	}

	client, err := deps.NewClient(cfg, cookies, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	if err := client.Init(ctx); err != nil {
		client.Close()
		return nil, err
	}

	logger.Debug("connected", "base_url", cfg.BaseURL, "ask_url", client.AskURL())
	return client, nil
}
