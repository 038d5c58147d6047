// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ContainerEnginePodman uses Podman as the container runtime.
	ContainerEnginePodman ContainerEngine = "podman"
	// ContainerEngineDocker uses Docker as the container runtime.
	ContainerEngineDocker ContainerEngine = "docker"

	// ProvisionerCommand delegates activation to an external tool.
	// Defined locally to avoid coupling config to pkg/envfile;
	// the launcher casts to envfile.ProvisionerMode at the boundary.
	ProvisionerCommand ProvisionerMode = "command"
	// ProvisionerVirtual activates environments in the embedded mvdan/sh interpreter.
	ProvisionerVirtual ProvisionerMode = "virtual"
	// ProvisionerContainer activates environments inside a container.
	ProvisionerContainer ProvisionerMode = "container"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidConfigProvisionerMode is returned when a config ProvisionerMode value is not recognized.
	ErrInvalidConfigProvisionerMode = errors.New("invalid provisioner mode")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidIncludePath is the sentinel error wrapped by InvalidIncludePathError.
	ErrInvalidIncludePath = errors.New("invalid include path")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ContainerEngine specifies which container runtime to use.
	ContainerEngine string

	// InvalidContainerEngineError is returned when a ContainerEngine value is not recognized.
	// It wraps ErrInvalidContainerEngine for errors.Is() compatibility.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// ProvisionerMode specifies the default activation backend.
	// Defined locally to avoid coupling config to pkg/envfile.
	ProvisionerMode string

	// InvalidConfigProvisionerModeError is returned when a config ProvisionerMode value is not recognized.
	// It wraps ErrInvalidConfigProvisionerMode for errors.Is() compatibility.
	InvalidConfigProvisionerModeError struct {
		Value ProvisionerMode
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// IncludePath represents a filesystem path to an additional envfile.
	// A valid path must be non-empty and not whitespace-only.
	IncludePath string

	// InvalidIncludePathError is returned when an IncludePath value is
	// empty or whitespace-only. It wraps ErrInvalidIncludePath for errors.Is().
	InvalidIncludePathError struct {
		Value IncludePath
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// DefaultProvisioner selects the activation backend when neither
		// the environment nor a CLI flag pins one.
		DefaultProvisioner ProvisionerMode `json:"default_provisioner" mapstructure:"default_provisioner"`
		// ProvisionCommand is the external provisioning tool argv prefix
		// (e.g., ["nix", "develop"]). The package list is appended to it.
		ProvisionCommand []string `json:"provision_command" mapstructure:"provision_command"`
		// ContainerEngine specifies whether to use "podman" or "docker".
		ContainerEngine ContainerEngine `json:"container_engine" mapstructure:"container_engine"`
		// Includes lists additional envfiles merged into the registry,
		// after the working directory's own envfile.
		Includes []IncludePath `json:"includes" mapstructure:"includes"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme.
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// String returns the string representation of the IncludePath.
func (p IncludePath) String() string { return string(p) }

// IsValid returns whether the IncludePath is valid.
// A valid path must be non-empty and not whitespace-only.
func (p IncludePath) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidIncludePathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidIncludePathError.
func (e *InvalidIncludePathError) Error() string {
	return fmt.Sprintf("invalid include path %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidIncludePath for errors.Is() compatibility.
func (e *InvalidIncludePathError) Unwrap() error { return ErrInvalidIncludePath }

// Error implements the error interface for InvalidContainerEngineError.
func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: podman, docker)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidContainerEngineError) Unwrap() error { return ErrInvalidContainerEngine }

// String returns the string representation of the ContainerEngine.
func (ce ContainerEngine) String() string { return string(ce) }

// IsValid returns whether the ContainerEngine is one of the defined engine types,
// and a list of validation errors if it is not.
func (ce ContainerEngine) IsValid() (bool, []error) {
	switch ce {
	case ContainerEnginePodman, ContainerEngineDocker:
		return true, nil
	default:
		return false, []error{&InvalidContainerEngineError{Value: ce}}
	}
}

// Error implements the error interface for InvalidConfigProvisionerModeError.
func (e *InvalidConfigProvisionerModeError) Error() string {
	return fmt.Sprintf("invalid provisioner mode %q (valid: command, virtual, container)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidConfigProvisionerModeError) Unwrap() error { return ErrInvalidConfigProvisionerMode }

// String returns the string representation of the config ProvisionerMode.
func (m ProvisionerMode) String() string { return string(m) }

// IsValid returns whether the config ProvisionerMode is one of the defined modes,
// and a list of validation errors if it is not.
func (m ProvisionerMode) IsValid() (bool, []error) {
	switch m {
	case ProvisionerCommand, ProvisionerVirtual, ProvisionerContainer:
		return true, nil
	default:
		return false, []error{&InvalidConfigProvisionerModeError{Value: m}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// IsValid returns whether the Config has valid fields.
// It delegates to ContainerEngine.IsValid(), DefaultProvisioner.IsValid(),
// each include path's IsValid(), and UI.ColorScheme.IsValid().
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ContainerEngine.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.DefaultProvisioner.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	for _, entry := range c.Includes {
		if valid, fieldErrs := entry.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultProvisioner: ProvisionerCommand,
		ProvisionCommand:   []string{"nix", "develop", "--command"},
		ContainerEngine:    ContainerEnginePodman,
		Includes:           []IncludePath{},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}
