// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"devshell-cli/pkg/envfile"
	"devshell-cli/pkg/types"
)

// CommandProvisioner delegates activation to an external provisioning tool.
// The tool's argv prefix comes from configuration (e.g., ["nix", "develop",
// "--command"]); the environment's package list is appended to it. The tool
// is treated as opaque: whatever it prints and whatever it exits with is
// the session's output and exit code.
type CommandProvisioner struct {
	// Argv is the tool invocation prefix. Must not be empty.
	Argv []string
}

// NewCommandProvisioner creates a command provisioner with the given
// tool argv prefix.
func NewCommandProvisioner(argv []string) *CommandProvisioner {
	return &CommandProvisioner{Argv: argv}
}

// Name returns the backend name.
func (p *CommandProvisioner) Name() string { return "command" }

// Available returns whether the configured tool is on PATH.
func (p *CommandProvisioner) Available() bool {
	if len(p.Argv) == 0 {
		return false
	}
	_, err := exec.LookPath(p.Argv[0])
	return err == nil
}

// Activate runs the external tool with the environment's packages appended
// to the configured argv prefix. The activation hook is exported via
// DEVSHELL_ACTIVATION_HOOK so the tool (or the user's shell rc) can run it
// once the environment is materialized.
func (p *CommandProvisioner) Activate(ctx context.Context, env *envfile.Environment, opts Options) *Result {
	if len(p.Argv) == 0 {
		return &Result{
			ExitCode: types.ExitFailure,
			Err:      fmt.Errorf("%w: provision_command is empty", ErrToolNotFound),
		}
	}
	if _, err := exec.LookPath(p.Argv[0]); err != nil {
		return &Result{
			ExitCode: types.ExitFailure,
			Err:      fmt.Errorf("%w: %q: %w", ErrToolNotFound, p.Argv[0], err),
		}
	}

	args := make([]string, 0, len(p.Argv)-1+len(env.Packages))
	args = append(args, p.Argv[1:]...)
	args = append(args, env.PackageStrings()...)

	cmd := exec.CommandContext(ctx, p.Argv[0], args...)
	cmd.Dir = opts.WorkDir
	cmd.Env = sessionEnv(os.Environ(), env, opts)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	if opts.Interactive {
		cmd.Stdin = opts.Stdin
	}

	return resultFromRunError(cmd.Run())
}
