// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"

	"devshell-cli/internal/config"
	"devshell-cli/pkg/envfile"
	"devshell-cli/pkg/platform"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == platform.Windows {
		t.Skip("test relies on a POSIX sh")
	}
}

func testEnv(name string, packages ...string) *envfile.Environment {
	env := &envfile.Environment{Name: envfile.EnvironmentName(name)}
	for _, p := range packages {
		env.Packages = append(env.Packages, envfile.PackageID(p))
	}
	return env
}

func TestNewSelectsBackend(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	tests := []struct {
		name string
		mode envfile.ProvisionerMode
		want string
	}{
		{"command", envfile.ProvisionerCommand, "command"},
		{"virtual", envfile.ProvisionerVirtual, "virtual"},
		{"container", envfile.ProvisionerContainer, "container"},
		{"zero value falls back to command", "", "command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := New(tt.mode, cfg)
			if err != nil {
				t.Fatalf("New(%q) returned error: %v", tt.mode, err)
			}
			named, ok := p.(interface{ Name() string })
			if !ok {
				t.Fatalf("backend %T has no Name()", p)
			}
			if named.Name() != tt.want {
				t.Errorf("New(%q).Name() = %q, want %q", tt.mode, named.Name(), tt.want)
			}
		})
	}
}

func TestNewUnknownMode(t *testing.T) {
	t.Parallel()

	_, err := New(envfile.ProvisionerMode("chroot"), config.DefaultConfig())
	if !errors.Is(err, ErrUnknownMode) {
		t.Errorf("New(chroot) = %v, want ErrUnknownMode", err)
	}
}

func TestForEnvironmentPinWinsOverDefault(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.DefaultProvisioner = config.ProvisionerContainer

	env := testEnv("py", "python3")
	env.Provisioner = envfile.ProvisionerVirtual

	p, err := ForEnvironment(env, cfg)
	if err != nil {
		t.Fatalf("ForEnvironment() returned error: %v", err)
	}
	if _, ok := p.(*VirtualProvisioner); !ok {
		t.Errorf("ForEnvironment() = %T, want *VirtualProvisioner", p)
	}

	env.Provisioner = ""
	p, err = ForEnvironment(env, cfg)
	if err != nil {
		t.Fatalf("ForEnvironment() returned error: %v", err)
	}
	if _, ok := p.(*ContainerProvisioner); !ok {
		t.Errorf("ForEnvironment() with no pin = %T, want *ContainerProvisioner", p)
	}
}

func TestCommandProvisionerExitCodePassThrough(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	// Packages become positional args to sh, which ignores them here.
	p := NewCommandProvisioner([]string{"sh", "-c", "exit 7"})
	res := p.Activate(context.Background(), testEnv("py", "python3"), Options{})
	if res.Err != nil {
		t.Fatalf("Activate() Err = %v, want nil", res.Err)
	}
	if res.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", res.ExitCode)
	}
}

func TestCommandProvisionerSuccess(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	var out bytes.Buffer
	p := NewCommandProvisioner([]string{"sh", "-c", `echo "activating $DEVSHELL_ENV"`})
	res := p.Activate(context.Background(), testEnv("py", "python3"), Options{Stdout: &out})
	if res.Err != nil || res.ExitCode != 0 {
		t.Fatalf("Activate() = code %d, err %v", res.ExitCode, res.Err)
	}
	if !strings.Contains(out.String(), "activating py") {
		t.Errorf("session did not see DEVSHELL_ENV: %q", out.String())
	}
}

func TestCommandProvisionerToolNotFound(t *testing.T) {
	t.Parallel()

	p := NewCommandProvisioner([]string{"definitely-not-a-real-tool-20260826"})
	res := p.Activate(context.Background(), testEnv("py", "python3"), Options{})
	if !errors.Is(res.Err, ErrToolNotFound) {
		t.Errorf("Err = %v, want ErrToolNotFound", res.Err)
	}
	if res.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", res.ExitCode)
	}
	if p.Available() {
		t.Error("Available() = true for a missing tool")
	}
}

func TestCommandProvisionerEmptyArgv(t *testing.T) {
	t.Parallel()

	p := NewCommandProvisioner(nil)
	res := p.Activate(context.Background(), testEnv("py", "python3"), Options{})
	if !errors.Is(res.Err, ErrToolNotFound) {
		t.Errorf("Err = %v, want ErrToolNotFound", res.Err)
	}
}

func TestVirtualProvisionerHookExitCode(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	env := testEnv("tools", "sh")
	env.Hook = "exit 3"

	res := NewVirtualProvisioner().Activate(context.Background(), env, Options{})
	if res.Err != nil {
		t.Fatalf("Activate() Err = %v, want nil", res.Err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
}

func TestVirtualProvisionerHookOutput(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	env := testEnv("tools", "sh")
	env.Hook = `echo "hook for $DEVSHELL_ENV"`

	var out bytes.Buffer
	res := NewVirtualProvisioner().Activate(context.Background(), env, Options{Stdout: &out})
	if res.Err != nil || res.ExitCode != 0 {
		t.Fatalf("Activate() = code %d, err %v", res.ExitCode, res.Err)
	}
	if !strings.Contains(out.String(), "hook for tools") {
		t.Errorf("hook output = %q", out.String())
	}
}

func TestVirtualProvisionerNoHook(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	res := NewVirtualProvisioner().Activate(context.Background(), testEnv("tools", "sh"), Options{})
	if res.Err != nil || res.ExitCode != 0 {
		t.Errorf("Activate() without hook = code %d, err %v, want 0/nil", res.ExitCode, res.Err)
	}
}

func TestVirtualProvisionerMissingPackages(t *testing.T) {
	t.Parallel()

	env := testEnv("tools", "definitely-not-a-real-pkg-20260826")
	res := NewVirtualProvisioner().Activate(context.Background(), env, Options{})
	if !errors.Is(res.Err, ErrMissingPackages) {
		t.Errorf("Err = %v, want ErrMissingPackages", res.Err)
	}
	if !strings.Contains(res.Err.Error(), "definitely-not-a-real-pkg-20260826") {
		t.Errorf("error does not name the missing package: %v", res.Err)
	}
}

func TestVirtualProvisionerHookSyntaxError(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	env := testEnv("tools", "sh")
	env.Hook = "if then fi"

	res := NewVirtualProvisioner().Activate(context.Background(), env, Options{})
	if res.Err == nil {
		t.Fatal("Activate() with bad hook syntax returned nil error")
	}
	if res.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", res.ExitCode)
	}
}

func TestBuildActivationScript(t *testing.T) {
	t.Parallel()

	env := testEnv("py", "python3", "gcc")
	env.Hook = "python3 --version"

	script := buildActivationScript(env, false)
	if !strings.Contains(script, "apk add --no-cache python3 gcc") {
		t.Errorf("script missing apk install line:\n%s", script)
	}
	if !strings.Contains(script, "apt-get install -y -qq python3 gcc") {
		t.Errorf("script missing apt fallback:\n%s", script)
	}
	if !strings.Contains(script, "python3 --version") {
		t.Errorf("script missing hook:\n%s", script)
	}
	if strings.Contains(script, "exec sh") {
		t.Error("non-interactive script hands over to a shell")
	}

	if interactive := buildActivationScript(env, true); !strings.Contains(interactive, "exec sh") {
		t.Error("interactive script does not hand over to a shell")
	}
}

func TestSessionEnv(t *testing.T) {
	t.Parallel()

	env := testEnv("py", "python3")
	env.Hook = "true"

	got := sessionEnv([]string{"PATH=/bin"}, env, Options{ExtraEnv: map[string]string{"EXTRA": "1"}})

	want := map[string]bool{
		"PATH=/bin":                     false,
		"DEVSHELL_ENV=py":               false,
		"DEVSHELL_ACTIVATION_HOOK=true": false,
		"EXTRA=1":                       false,
	}
	for _, kv := range got {
		if _, ok := want[kv]; ok {
			want[kv] = true
		}
	}
	for kv, seen := range want {
		if !seen {
			t.Errorf("sessionEnv missing %q in %v", kv, got)
		}
	}
}
