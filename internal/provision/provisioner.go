// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"devshell-cli/internal/config"
	"devshell-cli/pkg/envfile"
	"devshell-cli/pkg/types"
)

// ActivationHookVar is exported to every activation session so tools inside
// the environment can detect devshell and re-run the hook if needed.
const ActivationHookVar = "DEVSHELL_ACTIVATION_HOOK"

// EnvironmentNameVar carries the active environment's name into the session.
const EnvironmentNameVar = "DEVSHELL_ENV"

var (
	// ErrToolNotFound is returned when the external provisioning tool or
	// container engine is not on PATH.
	ErrToolNotFound = errors.New("provisioning tool not found")
	// ErrUnknownMode is returned when a provisioner mode has no backend.
	ErrUnknownMode = errors.New("unknown provisioner mode")
)

type (
	// Provisioner activates an environment and blocks until the session
	// ends. Implementations never call os.Exit; the outcome is reported
	// through the Result so the caller decides process termination.
	Provisioner interface {
		// Activate provisions env and runs its activation session.
		// The returned Result carries the session's exit code unchanged.
		Activate(ctx context.Context, env *envfile.Environment, opts Options) *Result
	}

	// Options carries per-activation inputs that are not part of the
	// environment definition itself.
	Options struct {
		// Stdin, Stdout, Stderr are the session's standard streams.
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer

		// Interactive requests an interactive session (stdin attached,
		// TTY flags for container runs).
		Interactive bool

		// WorkDir is the directory the session starts in. Empty means
		// the current working directory.
		WorkDir string

		// ExtraEnv is merged into the session environment on top of the
		// inherited one.
		ExtraEnv map[string]string
	}

	// Result is the outcome of an activation.
	Result struct {
		// ExitCode is the session's exit status, forwarded unchanged
		// from the underlying tool, interpreter, or container.
		ExitCode types.ExitCode

		// Err is set only for failures of the provisioner itself
		// (tool missing, hook syntax error); a non-zero ExitCode from
		// a session that ran is not an error.
		Err error
	}
)

// ForEnvironment selects the backend for env: the environment's own
// provisioner field wins, the configured default applies otherwise.
func ForEnvironment(env *envfile.Environment, cfg *config.Config) (Provisioner, error) {
	mode := env.Provisioner
	if !mode.IsSet() {
		mode = envfile.ProvisionerMode(cfg.DefaultProvisioner)
	}
	return New(mode, cfg)
}

// New returns the backend implementing the given mode.
func New(mode envfile.ProvisionerMode, cfg *config.Config) (Provisioner, error) {
	switch mode {
	case envfile.ProvisionerCommand, "":
		return NewCommandProvisioner(cfg.ProvisionCommand), nil
	case envfile.ProvisionerVirtual:
		return NewVirtualProvisioner(), nil
	case envfile.ProvisionerContainer:
		return NewContainerProvisioner(cfg.ContainerEngine), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// resultFromRunError converts an exec run error into a Result. Exit codes
// from sessions that ran are passed through; everything else is a
// provisioner failure reported as exit 1.
func resultFromRunError(err error) *Result {
	if err == nil {
		return &Result{ExitCode: types.ExitSuccess}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &Result{ExitCode: types.ExitCode(exitErr.ExitCode())}
	}
	return &Result{ExitCode: types.ExitFailure, Err: err}
}

// sessionEnv builds the environment slice for an activation session:
// the inherited environment plus devshell's own variables plus ExtraEnv.
func sessionEnv(base []string, env *envfile.Environment, opts Options) []string {
	out := make([]string, 0, len(base)+len(opts.ExtraEnv)+2)
	out = append(out, base...)
	out = append(out, EnvironmentNameVar+"="+string(env.Name))
	if env.Hook.IsSet() {
		out = append(out, ActivationHookVar+"="+string(env.Hook))
	}
	for k, v := range opts.ExtraEnv {
		out = append(out, k+"="+v)
	}
	return out
}
