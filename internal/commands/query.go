package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/diogo/askflow/internal/chat"
	"github.com/diogo/askflow/internal/config"
	apierrors "github.com/diogo/askflow/internal/errors"
	"github.com/diogo/askflow/internal/render"
)

var (
	colorText     = lipgloss.Color("#c0caf5")
	colorTextDim  = lipgloss.Color("#565f89")
	colorTextMute = lipgloss.Color("#3b4261")
	colorSuccess  = lipgloss.Color("#9ece6a")
	colorPrimary  = lipgloss.Color("#7aa2f7")
	colorError    = lipgloss.Color("#f7768e")
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)

	failedBubbleStyle = assistantBubbleStyle.
				BorderForeground(colorError)
)

// errExchangeFailed marks a failure outcome that was already printed
var errExchangeFailed = errors.New("the assistant could not answer")

type askOptions struct {
	// raw prints only the answer text, with no spinner or bubble
	raw bool
	// output, when set, receives the answer instead of stdout
	output string
}

// runAsk sends a single question and prints the outcome. A failure outcome
// is printed like an answer and then returned as an error.
func runAsk(ctx context.Context, deps *Dependencies, question string, opts askOptions) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return fmt.Errorf("question cannot be empty")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closer := openLogger(cfg, deps.Stderr)
	defer closer.Close()

	spin := startSpinner(deps.Stderr, "Connecting", opts.raw)
	client, err := connect(ctx, deps, cfg, logger)
	if err != nil {
		spin.stopWithError()
		if !opts.raw {
			fmt.Fprintln(deps.Stderr, formatErrorMessage(err, "Failed to connect"))
		}
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer client.Close()
	spin.stopWithSuccess("Connected")

	if cfg.Verbose && !opts.raw {
		fmt.Fprintf(deps.Stderr, "[verbose] Endpoint: %s\n", client.AskURL())
	}

	controller := chat.NewController(client, client.Cookies(), chat.WithLogger(logger))

	spin = startSpinner(deps.Stderr, "Thinking", opts.raw)
	startTime := time.Now()
	exchange, ok := controller.Submit(ctx, question)
	if !ok {
		spin.stopWithError()
		return fmt.Errorf("question cannot be empty")
	}

	select {
	case <-exchange.Done():
	case <-ctx.Done():
		spin.stopWithError()
		return ctx.Err()
	}
	requestDuration := time.Since(startTime)

	outcome := exchange.Outcome()
	text := outcome.Text()

	if failure, failed := outcome.(chat.Failure); failed {
		spin.stopWithError()
		if !opts.raw && failure.Err != nil {
			fmt.Fprintln(deps.Stderr, formatErrorMessage(failure.Err, "Request failed"))
		}
		if opts.raw {
			fmt.Fprintln(deps.Stdout, text)
		} else {
			printBubble(deps.Stdout, text, failedBubbleStyle, render.FromMarkdownConfig(cfg.Markdown))
		}
		if failure.Err != nil {
			return fmt.Errorf("%w: %w", errExchangeFailed, failure.Err)
		}
		return errExchangeFailed
	}
	spin.stopWithSuccess("Done")

	if cfg.Verbose && !opts.raw {
		fmt.Fprintf(deps.Stderr, "[verbose] Request took %s\n", requestDuration.Round(time.Millisecond))
	}

	return writeAnswer(deps, cfg, text, opts)
}

// writeAnswer delivers a successful answer to the file, clipboard or terminal
func writeAnswer(deps *Dependencies, cfg config.Config, text string, opts askOptions) error {
	if opts.raw {
		if opts.output != "" {
			return writeOutputFile(opts.output, text)
		}
		fmt.Fprintln(deps.Stdout, text)
		return nil
	}

	fmt.Fprintln(deps.Stderr)

	if cfg.CopyToClipboard {
		if err := deps.Clipboard(text); err != nil {
			warnMsg := lipgloss.NewStyle().Foreground(colorError).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err),
			)
			fmt.Fprintln(deps.Stderr, warnMsg)
		} else {
			fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard"))
		}
	}

	if opts.output != "" {
		if err := writeOutputFile(opts.output, text); err != nil {
			return err
		}
		successMsg := lipgloss.NewStyle().Foreground(colorSuccess).Render(
			fmt.Sprintf("✓ Answer saved to %s", opts.output),
		)
		fmt.Fprintln(deps.Stderr, successMsg)
		return nil
	}

	printBubble(deps.Stdout, text, assistantBubbleStyle, render.FromMarkdownConfig(cfg.Markdown))
	return nil
}

func writeOutputFile(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// printBubble prints the assistant label and the rendered text in a bubble
// sized to the terminal
func printBubble(w io.Writer, text string, style lipgloss.Style, opts render.Options) {
	bubbleWidth := clampWidth(getTerminalWidth() - 4)
	contentWidth := bubbleWidth - 4

	fmt.Fprintln(w, assistantLabelStyle.Render("✦ Assistant"))
	rendered := render.Answer(text, opts.WithWidth(contentWidth))
	fmt.Fprintln(w, style.Width(bubbleWidth).Render(rendered))
}

func clampWidth(width int) int {
	switch {
	case width < 40:
		return 40
	case width > 120:
		return 120
	}
	return width
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	// The body usually holds the server's own explanation
	if body := apierrors.GetResponseBody(err); body != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n\n  %s", strings.ReplaceAll(body, "\n", "\n  "))))
		return sb.String()
	}

	switch {
	case apierrors.IsAuthError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Try running 'askflow auto-login' to refresh your session"))
	case errors.Is(err, apierrors.ErrNoCookies):
		sb.WriteString(dimStyle.Render("\n  Hint: Run 'askflow auto-login' or 'askflow import-cookies <file>'"))
	case errors.Is(err, apierrors.ErrNoAskURL):
		sb.WriteString(dimStyle.Render("\n  Hint: Set the endpoint with --ask-url or 'askflow config set ask_url <url>'"))
	case apierrors.IsNetworkError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check that the server is reachable at the configured base_url"))
	case apierrors.IsParseError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: The server replied with an unexpected body; run with --verbose and check the log"))
	}

	return sb.String()
}
