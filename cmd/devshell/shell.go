// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"devshell-cli/internal/config"
	"devshell-cli/internal/launcher"
	"devshell-cli/internal/provision"
	"devshell-cli/pkg/envfile"
	"devshell-cli/pkg/platform"
	"devshell-cli/pkg/types"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// shellCmd activates a registered environment by name. 'devshell <env>' is
// a shorthand for this command.
var shellCmd = &cobra.Command{
	Use:   "shell <environment>",
	Short: "Activate a registered environment",
	Long: `Activate a registered environment.

The name is matched exactly and case-sensitively against the registry.
The provisioner's exit code becomes devshell's own exit code; an unknown
name prints an error to stderr and exits with code 1.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell(cmd.Context(), args[0])
	},
}

// runShell builds the launcher and runs the named environment. Non-zero
// exit codes (launcher failures and provisioner pass-through alike) are
// signalled via ExitError so Execute() can terminate with the right code.
func runShell(ctx context.Context, name string) error {
	reg, cfg, err := loadRegistry(ctx)
	if err != nil {
		return err
	}

	logger := log.Default()
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if engineOverride != "" {
		engine := config.ContainerEngine(engineOverride)
		if valid, errs := engine.IsValid(); !valid {
			return fmt.Errorf("invalid --engine value: %w", errs[0])
		}
		cfg.ContainerEngine = engine
	}

	l := launcher.New(reg, cfg)
	l.Interactive = platform.StdinIsTerminal() && platform.StdoutIsTerminal()
	l.Logger = logger

	if provisionerOverride != "" {
		mode, err := envfile.ParseProvisionerMode(provisionerOverride)
		if err != nil {
			return fmt.Errorf("invalid --provisioner value: %w", err)
		}
		l.NewProvisioner = func(_ *envfile.Environment, cfg *config.Config) (provision.Provisioner, error) {
			return provision.New(mode, cfg)
		}
	}

	code := l.Run(ctx, envfile.EnvironmentName(name))
	if code != types.ExitSuccess {
		// The launcher already wrote its message to stderr; the empty
		// ExitError just carries the code out through fang.
		return &ExitError{Code: code}
	}
	return nil
}
