// Package commands provides CLI commands for askflow.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	baseURLFlag string
	askURLFlag  string
	verboseFlag bool

	outputFlag string
	fileFlag   string
	rawFlag    bool

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = newRootCmd(NewDependencies())

func newRootCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "askflow [question]",
		Short: "Terminal client for the agency AI assistant",
		Long: `askflow sends questions to the AI assistant of the agency web application
and shows the answers in your terminal. It reuses the session cookies of a
logged-in browser and the csrftoken issued by the site.

Examples:
  askflow auto-login                    Take the session from your browser
  askflow chat                          Start interactive chat
  askflow "Which tours leave in May?"   Ask a single question
  askflow -f question.md                Read the question from a file
  cat question.md | askflow             Read the question from stdin
  askflow "Hello" -o answer.md          Save the answer to a file
  askflow config set base_url https://agency.example/dashboard/`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(deps.Stdout, "askflow %s (built %s)\n", Version, BuildTime)
				return nil
			}

			var stdin io.Reader
			if stat, err := os.Stdin.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
				stdin = os.Stdin
			}

			question, ok, err := readQuestion(args, fileFlag, stdin)
			if err != nil {
				return err
			}
			if !ok {
				return cmd.Help()
			}

			return runAsk(cmd.Context(), deps, question, askOptions{
				raw:    rawFlag || !isStdoutTTY(),
				output: outputFlag,
			})
		},
	}

	cmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "Page root of the web application (overrides base_url)")
	cmd.PersistentFlags().StringVar(&askURLFlag, "ask-url", "", "Assistant endpoint, skipping discovery (overrides ask_url)")
	cmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Write debug logs and print request details")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save answer to file")
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read question from file")
	cmd.Flags().BoolVar(&rawFlag, "raw", false, "Print the answer text without decoration")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(NewChatCmd(deps))
	cmd.AddCommand(NewConfigCmd(deps))
	cmd.AddCommand(NewImportCookiesCmd(deps))
	cmd.AddCommand(NewAutoLoginCmd(deps))

	return cmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// readQuestion picks the question from, in order, the file flag, piped
// stdin and the positional argument. ok is false when none was given.
func readQuestion(args []string, file string, stdin io.Reader) (question string, ok bool, err error) {
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	case stdin != nil:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", false, fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), true, nil
	case len(args) > 0:
		return args[0], true, nil
	}
	return "", false, nil
}
