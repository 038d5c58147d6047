// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"devshell-cli/internal/config"
	"devshell-cli/pkg/envfile"
	"devshell-cli/pkg/types"
)

// DefaultBaseImage is used when an environment does not pin a base image.
const DefaultBaseImage = "docker.io/library/alpine:latest"

// ContainerProvisioner activates environments inside a container run by
// podman or docker. Packages are installed into a fresh container from the
// environment's base image, the activation hook runs inside it, and the
// container's exit status becomes the session's exit code.
type ContainerProvisioner struct {
	// Engine is the configured container engine. When its binary is not
	// on PATH, the other engine is tried as a fallback.
	Engine config.ContainerEngine
}

// NewContainerProvisioner creates a container provisioner for the given engine.
func NewContainerProvisioner(engine config.ContainerEngine) *ContainerProvisioner {
	return &ContainerProvisioner{Engine: engine}
}

// Name returns the backend name.
func (p *ContainerProvisioner) Name() string { return "container" }

// Available returns whether a usable container engine is on PATH.
func (p *ContainerProvisioner) Available() bool {
	_, err := p.resolveEngine()
	return err == nil
}

// Activate runs the environment inside a disposable container. Engine-level
// failures keep the engine's own exit codes (125/126), which callers can
// distinguish via types.ExitCode.IsTransient.
func (p *ContainerProvisioner) Activate(ctx context.Context, env *envfile.Environment, opts Options) *Result {
	engine, err := p.resolveEngine()
	if err != nil {
		return &Result{ExitCode: types.ExitFailure, Err: err}
	}

	image := env.BaseImage
	if image == "" {
		image = DefaultBaseImage
	}

	args := []string{"run", "--rm"}
	if opts.Interactive {
		args = append(args, "-it")
	}
	if opts.WorkDir != "" {
		args = append(args, "-v", opts.WorkDir+":/workspace", "-w", "/workspace")
	}
	args = append(args, "-e", EnvironmentNameVar+"="+string(env.Name))
	if env.Hook.IsSet() {
		args = append(args, "-e", ActivationHookVar+"="+string(env.Hook))
	}
	for k, v := range opts.ExtraEnv {
		args = append(args, "-e", k+"="+v)
	}
	args = append(args, image, "sh", "-lc", buildActivationScript(env, opts.Interactive))

	cmd := exec.CommandContext(ctx, engine, args...)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	if opts.Interactive {
		cmd.Stdin = opts.Stdin
	}

	return resultFromRunError(cmd.Run())
}

// resolveEngine returns the engine binary to use: the configured one if
// present, the other engine as fallback, an error when neither exists.
func (p *ContainerProvisioner) resolveEngine() (string, error) {
	candidates := []config.ContainerEngine{p.Engine}
	switch p.Engine {
	case config.ContainerEngineDocker:
		candidates = append(candidates, config.ContainerEnginePodman)
	default:
		candidates = append(candidates, config.ContainerEngineDocker)
	}

	for _, engine := range candidates {
		if engine == "" {
			continue
		}
		if path, err := exec.LookPath(string(engine)); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: no container engine on PATH (tried %s)", ErrToolNotFound, joinEngines(candidates))
}

// buildActivationScript produces the in-container bootstrap: install the
// environment's packages with whichever package manager the base image
// ships, run the activation hook, then hand over to an interactive shell
// when requested.
func buildActivationScript(env *envfile.Environment, interactive bool) string {
	pkgs := strings.Join(env.PackageStrings(), " ")

	var sb strings.Builder
	sb.WriteString("set -e\n")
	sb.WriteString("if command -v apk >/dev/null 2>&1; then apk add --no-cache " + pkgs + "; ")
	sb.WriteString("elif command -v apt-get >/dev/null 2>&1; then apt-get update -qq && apt-get install -y -qq " + pkgs + "; ")
	sb.WriteString("elif command -v dnf >/dev/null 2>&1; then dnf install -y -q " + pkgs + "; ")
	sb.WriteString("else echo 'no supported package manager in base image' >&2; exit 1; fi\n")
	if env.Hook.IsSet() {
		sb.WriteString(string(env.Hook))
		sb.WriteString("\n")
	}
	if interactive {
		sb.WriteString("exec sh\n")
	}
	return sb.String()
}

func joinEngines(engines []config.ContainerEngine) string {
	parts := make([]string, 0, len(engines))
	for _, e := range engines {
		if e != "" {
			parts = append(parts, string(e))
		}
	}
	return strings.Join(parts, ", ")
}
