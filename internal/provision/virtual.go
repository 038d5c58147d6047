// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"devshell-cli/pkg/envfile"
	"devshell-cli/pkg/types"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// ErrMissingPackages is returned when the virtual provisioner cannot find
// required packages on the host PATH.
var ErrMissingPackages = errors.New("packages not available on PATH")

// VirtualProvisioner activates environments in the embedded mvdan/sh
// interpreter. It cannot materialize packages; instead it verifies that
// each required package is already resolvable on the host PATH, then runs
// the activation hook in the interpreter. Environments without a hook
// activate as a plain availability check.
type VirtualProvisioner struct{}

// NewVirtualProvisioner creates a virtual provisioner.
func NewVirtualProvisioner() *VirtualProvisioner {
	return &VirtualProvisioner{}
}

// Name returns the backend name.
func (p *VirtualProvisioner) Name() string { return "virtual" }

// Available returns whether this backend is available. The interpreter is
// built in, so it always is.
func (p *VirtualProvisioner) Available() bool { return true }

// Activate verifies package availability and runs the activation hook.
// Hook exit codes are forwarded unchanged via interp.ExitStatus.
func (p *VirtualProvisioner) Activate(ctx context.Context, env *envfile.Environment, opts Options) *Result {
	if missing := missingPackages(env); len(missing) > 0 {
		return &Result{
			ExitCode: types.ExitFailure,
			Err:      fmt.Errorf("%w: %s", ErrMissingPackages, strings.Join(missing, ", ")),
		}
	}

	if !env.Hook.IsSet() {
		return &Result{ExitCode: types.ExitSuccess}
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(string(env.Hook)), "hook")
	if err != nil {
		return &Result{
			ExitCode: types.ExitFailure,
			Err:      fmt.Errorf("failed to parse activation hook: %w", err),
		}
	}

	runnerOpts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(sessionEnv(os.Environ(), env, opts)...)),
		interp.StdIO(opts.Stdin, opts.Stdout, opts.Stderr),
	}
	if opts.WorkDir != "" {
		runnerOpts = append(runnerOpts, interp.Dir(opts.WorkDir))
	}

	runner, err := interp.New(runnerOpts...)
	if err != nil {
		return &Result{
			ExitCode: types.ExitFailure,
			Err:      fmt.Errorf("failed to create interpreter: %w", err),
		}
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &Result{ExitCode: types.ExitCode(exitStatus)}
		}
		return &Result{
			ExitCode: types.ExitFailure,
			Err:      fmt.Errorf("activation hook failed: %w", err),
		}
	}

	return &Result{ExitCode: types.ExitSuccess}
}

// missingPackages returns the packages that are not resolvable on PATH,
// in declaration order.
func missingPackages(env *envfile.Environment) []string {
	var missing []string
	for _, pkg := range env.PackageStrings() {
		if _, err := exec.LookPath(pkg); err != nil {
			missing = append(missing, pkg)
		}
	}
	return missing
}
