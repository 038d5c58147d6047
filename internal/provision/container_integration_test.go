// SPDX-License-Identifier: MPL-2.0

// Integration tests for the container provisioner. These require a working
// Docker or Podman installation and are skipped in -short mode.
package provision

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"

	"devshell-cli/internal/config"
	"devshell-cli/pkg/envfile"
)

// checkTestcontainersAvailable safely checks if testcontainers can be used.
// Returns true if containers are available, false otherwise.
func checkTestcontainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

func TestContainerProvisionerIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	p := NewContainerProvisioner(config.ContainerEngineDocker)
	if !p.Available() {
		t.Skip("skipping container integration tests: no container engine available")
	}
	if !checkTestcontainersAvailable() {
		t.Skip("skipping container integration tests: testcontainers provider not available")
	}

	t.Run("HookRunsAfterInstall", testContainerHookRuns)
	t.Run("ExitCodePassThrough", testContainerExitCode)
	t.Run("EnvironmentNameExported", testContainerEnvName)
}

func testContainerHookRuns(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	env := &envfile.Environment{
		Name:      "it-git",
		Packages:  []envfile.PackageID{"git"},
		Hook:      "git --version",
		BaseImage: "alpine:latest",
	}

	var out bytes.Buffer
	p := NewContainerProvisioner(config.ContainerEngineDocker)
	res := p.Activate(ctx, env, Options{Stdout: &out, Stderr: &out})

	if res.Err != nil {
		t.Fatalf("Activate() Err = %v\noutput:\n%s", res.Err, out.String())
	}
	if res.ExitCode != 0 {
		t.Fatalf("ExitCode = %d\noutput:\n%s", res.ExitCode, out.String())
	}
	if !strings.Contains(out.String(), "git version") {
		t.Errorf("hook output missing git version:\n%s", out.String())
	}
}

func testContainerExitCode(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	env := &envfile.Environment{
		Name:      "it-exit",
		Packages:  []envfile.PackageID{"git"},
		Hook:      "exit 42",
		BaseImage: "alpine:latest",
	}

	p := NewContainerProvisioner(config.ContainerEngineDocker)
	res := p.Activate(ctx, env, Options{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})

	if res.ExitCode != 42 {
		t.Errorf("ExitCode = %d, want 42 (err: %v)", res.ExitCode, res.Err)
	}
}

func testContainerEnvName(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	env := &envfile.Environment{
		Name:      "it-name",
		Packages:  []envfile.PackageID{"git"},
		Hook:      `echo "active: $DEVSHELL_ENV"`,
		BaseImage: "alpine:latest",
	}

	var out bytes.Buffer
	p := NewContainerProvisioner(config.ContainerEngineDocker)
	res := p.Activate(ctx, env, Options{Stdout: &out, Stderr: &out})

	if res.ExitCode != 0 {
		t.Fatalf("ExitCode = %d (err: %v)\noutput:\n%s", res.ExitCode, res.Err, out.String())
	}
	if !strings.Contains(out.String(), "active: it-name") {
		t.Errorf("DEVSHELL_ENV not visible in container:\n%s", out.String())
	}
}
