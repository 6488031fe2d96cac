package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/askflow/internal/render"
	"github.com/diogo/askflow/internal/tui"
)

// NewChatCmd creates the interactive chat command
func NewChatCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session with the assistant.

Each question is a separate exchange; you can keep typing while earlier
questions are still being answered.
Type 'exit', 'quit', or press Esc or Ctrl+C to end the session.
Ctrl+Y copies the last answer, '/save <file>' exports the transcript.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), deps)
		},
	}
}

func runChat(ctx context.Context, deps *Dependencies) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closer := openLogger(cfg, deps.Stderr)
	defer closer.Close()

	spin := newSpinner(deps.Stderr, "Connecting")
	spin.start()
	client, err := connect(ctx, deps, cfg, logger)
	if err != nil {
		spin.stopWithError()
		fmt.Fprintln(deps.Stderr, formatErrorMessage(err, "Failed to connect"))
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer client.Close()
	spin.stopWithSuccess("Connected")

	return deps.TUI.RunChat(ctx, client, client.Cookies(), tui.Options{
		Render:   render.FromMarkdownConfig(cfg.Markdown),
		Logger:   logger,
		Subtitle: client.AskURL(),
		Copy:     deps.Clipboard,
	})
}
