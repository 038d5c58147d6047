// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	_ "embed"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

//go:embed docs.md
var docsMarkdown string

// docsCmd renders the built-in reference documentation in the terminal.
var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Show the devshell reference documentation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rendered, err := glamour.Render(docsMarkdown, "dark")
		if err != nil {
			// Fall back to the raw markdown when the renderer cannot
			// size itself (no TTY, exotic TERM).
			fmt.Print(docsMarkdown)
			return nil
		}
		fmt.Print(rendered)
		return nil
	},
}
