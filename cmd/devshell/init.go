// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"devshell-cli/pkg/envfile"

	"github.com/spf13/cobra"
)

var (
	initForce  bool
	initFormat string

	// initCmd creates a new envfile
	initCmd = &cobra.Command{
		Use:   "init [filename]",
		Short: "Create a new envfile in the current directory",
		Long: `Create a new envfile in the current directory with an example environment.

This command generates a starter envfile with a sample environment to help
you get started quickly. Use --format toml for a TOML envfile instead of CUE.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing envfile")
	initCmd.Flags().StringVarP(&initFormat, "format", "t", "cue", "envfile format (cue, toml)")
}

func runInit(cmd *cobra.Command, args []string) error {
	var filename, content string
	switch initFormat {
	case "cue":
		filename = envfile.DefaultFileName
		content = starterEnvfileCUE
	case "toml":
		filename = envfile.DefaultTOMLFileName
		content = starterEnvfileTOML
	default:
		return fmt.Errorf("unknown format '%s' (valid: cue, toml)", initFormat)
	}
	if len(args) > 0 {
		filename = args[0]
	}

	// Check if file exists
	if _, err := os.Stat(filename); err == nil && !initForce {
		return fmt.Errorf("file '%s' already exists. Use --force to overwrite", filename)
	}

	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	absPath, _ := filepath.Abs(filename)
	fmt.Printf("%s Created %s\n", SuccessStyle.Render("✓"), absPath)
	fmt.Println()
	fmt.Println(SubtitleStyle.Render("Next steps:"))
	fmt.Println("  1. Edit the envfile to declare your environments")
	fmt.Println("  2. Run 'devshell list' to see registered environments")
	fmt.Println("  3. Activate one with 'devshell <environment>'")

	return nil
}

const starterEnvfileCUE = `// Devshell envfile. Each environment declares the packages it needs;
// the configured provisioner materializes them on activation.

environments: [
	{
		name:        "python"
		description: "Python toolchain with native build deps"
		packages: ["gcc", "pkg-config", "python314", "ruff", "uv", "pyright"]
		hook: "python --version"
	},
]
`

const starterEnvfileTOML = `# Devshell envfile. Each environment declares the packages it needs;
# the configured provisioner materializes them on activation.

[[environments]]
name = "python"
description = "Python toolchain with native build deps"
packages = ["gcc", "pkg-config", "python314", "ruff", "uv", "pyright"]
hook = "python --version"
`
