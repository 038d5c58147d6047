// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"devshell-cli/internal/config"
	"devshell-cli/internal/provision"
	"devshell-cli/internal/registry"
	"devshell-cli/pkg/envfile"
	"devshell-cli/pkg/types"

	"github.com/charmbracelet/log"
)

// ProvisionerFactory returns the provisioner that activates env. The
// default is provision.ForEnvironment; tests inject fakes through it.
type ProvisionerFactory func(env *envfile.Environment, cfg *config.Config) (provision.Provisioner, error)

// Launcher resolves environment names and delegates activation. All exit
// decisions are returned, never executed: the launcher does not call
// os.Exit.
type Launcher struct {
	Registry *registry.Registry
	Config   *config.Config

	// Stdin, Stdout, Stderr are the session streams. Stderr also carries
	// the launcher's own error messages. Nil values default to the
	// process streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Interactive requests an interactive session from the provisioner.
	Interactive bool

	// WorkDir is the directory sessions start in. Empty means the
	// current working directory.
	WorkDir string

	// NewProvisioner overrides provisioner selection. Nil selects by
	// environment pin and configured default.
	NewProvisioner ProvisionerFactory

	Logger *log.Logger
}

// New creates a launcher wired to the process streams.
func New(reg *registry.Registry, cfg *config.Config) *Launcher {
	return &Launcher{
		Registry: reg,
		Config:   cfg,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Logger:   log.Default(),
	}
}

// Run looks up name and activates the matching environment, blocking until
// the session ends. The returned exit code is the provisioner's own for
// sessions that ran (pass-through, including non-zero), and ExitFailure
// for launcher-level failures. Unknown names print exactly
//
//	Error: unknown env: '<name>'
//
// to stderr and return ExitFailure.
func (l *Launcher) Run(ctx context.Context, name envfile.EnvironmentName) types.ExitCode {
	env, err := l.Registry.Lookup(name)
	if err != nil {
		var nf *registry.NotFoundError
		if errors.As(err, &nf) {
			fmt.Fprintf(l.stderr(), "Error: unknown env: '%s'\n", name)
			if names := l.Registry.Names(); len(names) > 0 {
				fmt.Fprintf(l.stderr(), "Run 'devshell list' to see the %d registered environment(s).\n", len(names))
			}
			return types.ExitFailure
		}
		fmt.Fprintf(l.stderr(), "Error: %v\n", err)
		return types.ExitFailure
	}

	prov, err := l.provisionerFor(env)
	if err != nil {
		fmt.Fprintf(l.stderr(), "Error: %v\n", err)
		return types.ExitFailure
	}

	l.logger().Debug("activating environment",
		"env", env.Name,
		"packages", len(env.Packages),
		"interactive", l.Interactive)

	res := prov.Activate(ctx, env, provision.Options{
		Stdin:       l.stdin(),
		Stdout:      l.stdout(),
		Stderr:      l.stderr(),
		Interactive: l.Interactive,
		WorkDir:     l.WorkDir,
	})

	if res.Err != nil {
		l.logger().Debug("provisioner failed", "env", env.Name, "err", res.Err)
		fmt.Fprintf(l.stderr(), "Error: %v\n", res.Err)
	}

	return res.ExitCode
}

func (l *Launcher) provisionerFor(env *envfile.Environment) (provision.Provisioner, error) {
	if l.NewProvisioner != nil {
		return l.NewProvisioner(env, l.Config)
	}
	return provision.ForEnvironment(env, l.Config)
}

func (l *Launcher) stdin() io.Reader {
	if l.Stdin != nil {
		return l.Stdin
	}
	return os.Stdin
}

func (l *Launcher) stdout() io.Writer {
	if l.Stdout != nil {
		return l.Stdout
	}
	return os.Stdout
}

func (l *Launcher) stderr() io.Writer {
	if l.Stderr != nil {
		return l.Stderr
	}
	return os.Stderr
}

func (l *Launcher) logger() *log.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return log.Default()
}
