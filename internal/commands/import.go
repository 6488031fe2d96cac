package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/diogo/askflow/internal/config"
)

// NewImportCookiesCmd creates the import-cookies command
func NewImportCookiesCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "import-cookies <path>",
		Short: "Import session cookies from a file",
		Long: `Import the site's session cookies from a JSON file.

The cookies file should contain either:
1. A list of objects: [{"name": "sessionid", "value": "..."}]
2. A simple dictionary: {"sessionid": "...", "csrftoken": "..."}

Required cookie: sessionid
Optional cookie: csrftoken (a fresh one is fetched on connect)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportCookies(deps.Stdout, args[0])
		},
	}
}

func runImportCookies(w io.Writer, sourcePath string) error {
	cookies, err := config.ImportCookies(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to import cookies: %w", err)
	}

	cookiesPath, _ := config.GetCookiesPath()
	fmt.Fprintf(w, "Cookies imported successfully to %s\n", cookiesPath)
	if cookies.GetCSRFToken() == "" {
		fmt.Fprintln(w, "No csrftoken in the file; one will be requested on the next connect.")
	}
	return nil
}
