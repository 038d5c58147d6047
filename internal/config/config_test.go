// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	SetConfigDirOverride(t.TempDir())
	t.Cleanup(Reset)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.DefaultProvisioner != ProvisionerCommand {
		t.Errorf("DefaultProvisioner = %q, want %q", cfg.DefaultProvisioner, ProvisionerCommand)
	}
	if cfg.ContainerEngine != ContainerEnginePodman {
		t.Errorf("ContainerEngine = %q, want %q", cfg.ContainerEngine, ContainerEnginePodman)
	}
	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("UI.ColorScheme = %q, want %q", cfg.UI.ColorScheme, ColorSchemeAuto)
	}
	if cfg.UI.Verbose {
		t.Error("UI.Verbose = true, want false by default")
	}
	if len(cfg.ProvisionCommand) == 0 {
		t.Error("ProvisionCommand is empty, want built-in default")
	}
}

func TestLoadFromConfigDir(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	writeConfigFile(t, dir, `
default_provisioner: "virtual"
container_engine: "docker"
ui: {
	verbose: true
}
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.DefaultProvisioner != ProvisionerVirtual {
		t.Errorf("DefaultProvisioner = %q, want %q", cfg.DefaultProvisioner, ProvisionerVirtual)
	}
	if cfg.ContainerEngine != ContainerEngineDocker {
		t.Errorf("ContainerEngine = %q, want %q", cfg.ContainerEngine, ContainerEngineDocker)
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose = false, want true from file")
	}
	// Unset fields keep their defaults.
	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("UI.ColorScheme = %q, want default %q", cfg.UI.ColorScheme, ColorSchemeAuto)
	}
}

func TestLoadSchemaViolation(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	writeConfigFile(t, dir, `container_engine: "lxc"`)

	_, err := Load()
	if err == nil {
		t.Fatal("expected Load() to return error for invalid container_engine")
	}
	if !strings.Contains(err.Error(), "load configuration") {
		t.Errorf("error message missing operation context: %v", err)
	}
}

func TestLoadDuplicateIncludes(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	writeConfigFile(t, dir, `
includes: ["./team/envs.cue", "team/envs.cue"]
`)

	_, err := Load()
	if err == nil {
		t.Fatal("expected Load() to return error for duplicate include paths")
	}
	if !strings.Contains(err.Error(), "duplicate path") {
		t.Errorf("error = %v, want duplicate path complaint", err)
	}
}

func TestLoadExplicitFileNotFound(t *testing.T) {
	t.Cleanup(Reset)
	SetConfigFilePathOverride(filepath.Join(t.TempDir(), "missing.cue"))

	_, err := Load()
	if err == nil {
		t.Fatal("expected Load() to return error for missing explicit config file")
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("error = %v, want config file not found", err)
	}
}

func TestProviderLoadWithConfigDirPath(t *testing.T) {
	t.Cleanup(Reset)
	dir := t.TempDir()
	writeConfigFile(t, dir, `default_provisioner: "container"`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Provider.Load() returned error: %v", err)
	}
	if cfg.DefaultProvisioner != ProvisionerContainer {
		t.Errorf("DefaultProvisioner = %q, want %q", cfg.DefaultProvisioner, ProvisionerContainer)
	}
}

func TestProviderLoadCanceledContext(t *testing.T) {
	t.Cleanup(Reset)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Load() with canceled context = %v, want context.Canceled", err)
	}
}

func TestGenerateCUERoundTrip(t *testing.T) {
	t.Cleanup(Reset)
	dir := t.TempDir()
	SetConfigDirOverride(dir)

	want := &Config{
		DefaultProvisioner: ProvisionerVirtual,
		ProvisionCommand:   []string{"devbox", "shell"},
		ContainerEngine:    ContainerEngineDocker,
		Includes:           []IncludePath{"./extra/envs.cue"},
		UI: UIConfig{
			ColorScheme: ColorSchemeDark,
			Verbose:     true,
		},
	}

	if err := Save(want); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if got.DefaultProvisioner != want.DefaultProvisioner {
		t.Errorf("DefaultProvisioner = %q, want %q", got.DefaultProvisioner, want.DefaultProvisioner)
	}
	if len(got.ProvisionCommand) != 2 || got.ProvisionCommand[0] != "devbox" {
		t.Errorf("ProvisionCommand = %v, want %v", got.ProvisionCommand, want.ProvisionCommand)
	}
	if got.ContainerEngine != want.ContainerEngine {
		t.Errorf("ContainerEngine = %q, want %q", got.ContainerEngine, want.ContainerEngine)
	}
	if len(got.Includes) != 1 || got.Includes[0] != want.Includes[0] {
		t.Errorf("Includes = %v, want %v", got.Includes, want.Includes)
	}
	if got.UI != want.UI {
		t.Errorf("UI = %+v, want %+v", got.UI, want.UI)
	}
}

func TestCreateDefaultConfigIdempotent(t *testing.T) {
	t.Cleanup(Reset)
	dir := t.TempDir()
	SetConfigDirOverride(dir)

	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig() returned error: %v", err)
	}

	cfgPath := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	first, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("failed to read generated config: %v", err)
	}

	// Mutate the file, then confirm a second call does not overwrite it.
	if err := os.WriteFile(cfgPath, append(first, []byte("\n// edited\n")...), 0o644); err != nil {
		t.Fatalf("failed to edit config: %v", err)
	}
	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("second CreateDefaultConfig() returned error: %v", err)
	}
	second, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("failed to re-read config: %v", err)
	}
	if !strings.Contains(string(second), "// edited") {
		t.Error("CreateDefaultConfig() overwrote an existing config file")
	}
}

func TestConfigFilePathHonorsOverride(t *testing.T) {
	t.Cleanup(Reset)
	SetConfigFilePathOverride("/tmp/custom.cue")

	got, err := ConfigFilePath()
	if err != nil {
		t.Fatalf("ConfigFilePath() returned error: %v", err)
	}
	if got != "/tmp/custom.cue" {
		t.Errorf("ConfigFilePath() = %q, want /tmp/custom.cue", got)
	}
}
