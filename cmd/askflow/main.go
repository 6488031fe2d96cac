// Command askflow is a terminal client for the agency AI assistant.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/diogo/askflow/internal/commands"
)

func main() {
	// A .env in the working directory may carry ASKFLOW_* settings
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env: %v\n", err)
	}

	commands.Execute()
}
