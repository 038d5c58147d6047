// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"devshell-cli/internal/config"
	"devshell-cli/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// envfilePath allows specifying a custom envfile
	envfilePath string
	// provisionerOverride pins the activation backend for this invocation
	provisionerOverride string
	// engineOverride pins the container engine for this invocation
	engineOverride string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "devshell [environment]",
		Short: "Reproducible development environment launcher",
		Long: TitleStyle.Render("devshell") + SubtitleStyle.Render(" - Reproducible development environment launcher") + `

devshell registers named development environments from an envfile and
activates them on demand. Environments declare their packages once; the
configured provisioner (an external tool, the built-in shell interpreter,
or a container engine) materializes them.

Environments are defined in 'devshell.cue' (CUE format) or
'devshell.toml' (TOML format) in your project directory.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Run 'devshell init' to scaffold an envfile
  2. Declare your environments and their packages
  3. Activate one with: devshell <environment>

` + SubtitleStyle.Render("Examples:") + `
  devshell python           Activate the 'python' environment
  devshell shell python     Same, via the explicit subcommand
  devshell list             List registered environments
  devshell init             Create a new envfile
  devshell config show      Show current configuration`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRoot,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/devshell/config.cue)")
	rootCmd.PersistentFlags().StringVarP(&envfilePath, "envfile", "f", "", "envfile to load (default is ./devshell.cue or ./devshell.toml)")
	rootCmd.PersistentFlags().StringVarP(&provisionerOverride, "provisioner", "p", "", "activation backend for this invocation (command, virtual, container)")
	rootCmd.PersistentFlags().StringVar(&engineOverride, "engine", "", "container engine for this invocation (podman, docker)")

	// Add subcommands
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(completionCmd)
}

// runRoot implements the shorthand: 'devshell <env>' activates the named
// environment, 'devshell' alone shows help plus the registered names.
func runRoot(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		if err := cmd.Help(); err != nil {
			return err
		}
		printRegisteredEnvironments(cmd.Context())
		return nil
	}
	return runShell(cmd.Context(), args[0])
}

// printRegisteredEnvironments appends the registry contents to help output.
// Failures to load the envfile are deliberately silent here; plain
// 'devshell' in a directory without an envfile is not an error.
func printRegisteredEnvironments(ctx context.Context) {
	reg, _, err := loadRegistry(ctx)
	if err != nil || reg.Len() == 0 {
		return
	}

	fmt.Println()
	fmt.Println(SubtitleStyle.Render("Registered environments:"))
	for _, env := range reg.Environments() {
		if env.Description != "" {
			fmt.Printf("  %s  %s\n", EnvStyle.Render(string(env.Name)), SubtitleStyle.Render(env.Description))
		} else {
			fmt.Printf("  %s\n", EnvStyle.Render(string(env.Name)))
		}
	}
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	// Set custom config file path if provided via --config flag
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Always surface config loading errors to the user
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	}

	// Apply verbose from config if not set via flag
	if cfg != nil && !verbose {
		verbose = cfg.UI.Verbose
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}
