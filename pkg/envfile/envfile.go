// SPDX-License-Identifier: MPL-2.0

package envfile

import (
	"fmt"
	"strings"

	"devshell-cli/pkg/types"
)

type (
	// Environment describes one named, reproducible development
	// environment: the packages it provides and how to activate it.
	Environment struct {
		// Name is the environment identifier (registry key).
		Name EnvironmentName `json:"name" toml:"name"`
		// Description provides help text for list output (optional).
		Description string `json:"description,omitempty" toml:"description,omitempty"`
		// Packages is the ordered list of package identifiers the
		// environment provides. Order is irrelevant to correctness but is
		// preserved for reproducible provisioner invocations and logs.
		Packages []PackageID `json:"packages" toml:"packages"`
		// Hook is an optional command executed after the environment is
		// materialized (e.g., a version banner).
		Hook ActivationHook `json:"hook,omitempty" toml:"hook,omitempty"`
		// BaseImage is the container base image for the container
		// provisioner (optional; ignored by other provisioners).
		BaseImage string `json:"base_image,omitempty" toml:"base_image,omitempty"`
		// Provisioner optionally pins this environment to a specific
		// provisioner. Empty means the configured default.
		Provisioner ProvisionerMode `json:"provisioner,omitempty" toml:"provisioner,omitempty"`
	}

	// Envfile is one parsed environment descriptor file. Environments keep
	// their declaration order; the registry lists them in that order.
	Envfile struct {
		// Environments holds the declared environments, in file order.
		Environments []Environment `json:"environments" toml:"environments"`
		// FilePath is the path this envfile was loaded from.
		// Set by Parse, not part of the descriptor itself.
		FilePath types.FilesystemPath `json:"-" toml:"-"`
	}

	// ValidationErrors is a collection of validation errors that implements
	// the error interface, so a single validation pass can report every
	// issue instead of stopping at the first.
	ValidationErrors []error
)

// Error implements the error interface.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	msgs := make([]string, len(ve))
	for i, err := range ve {
		msgs[i] = "  - " + err.Error()
	}
	return fmt.Sprintf("%d validation errors:\n%s", len(ve), strings.Join(msgs, "\n"))
}

// Unwrap returns the individual errors for errors.Is/As traversal.
func (ve ValidationErrors) Unwrap() []error { return ve }

// IsValid returns whether the Environment has valid fields, and a list
// of validation errors if it does not. Packages must be non-empty: an
// environment that provides nothing cannot be materialized.
func (e *Environment) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := e.Name.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(e.Packages) == 0 {
		errs = append(errs, fmt.Errorf("environment %q: packages must not be empty", e.Name))
	}
	for i, pkg := range e.Packages {
		if valid, fieldErrs := pkg.IsValid(); !valid {
			for _, err := range fieldErrs {
				errs = append(errs, fmt.Errorf("environment %q: packages[%d]: %w", e.Name, i, err))
			}
		}
	}
	if valid, fieldErrs := e.Hook.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := e.Provisioner.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, errs
	}
	return true, nil
}

// PackageStrings returns the package list as plain strings, preserving
// declaration order. Used when handing the definition to a provisioner argv.
func (e *Environment) PackageStrings() []string {
	out := make([]string, len(e.Packages))
	for i, p := range e.Packages {
		out[i] = string(p)
	}
	return out
}

// Validate checks the envfile's structural constraints that the CUE
// schema cannot express: per-environment field validity and name
// uniqueness across the file. All errors are collected.
func (f *Envfile) Validate() ValidationErrors {
	var errs ValidationErrors

	seen := make(map[EnvironmentName]int)
	for i := range f.Environments {
		env := &f.Environments[i]
		if _, fieldErrs := env.IsValid(); len(fieldErrs) > 0 {
			errs = append(errs, fieldErrs...)
		}
		if firstIdx, dup := seen[env.Name]; dup {
			errs = append(errs, fmt.Errorf(
				"duplicate environment name %q (environments[%d] and environments[%d])",
				env.Name, firstIdx, i))
			continue
		}
		seen[env.Name] = i
	}

	return errs
}

// Get returns the environment with the given name, or nil if the envfile
// does not declare it. Matching is exact and case-sensitive.
func (f *Envfile) Get(name EnvironmentName) *Environment {
	for i := range f.Environments {
		if f.Environments[i].Name == name {
			return &f.Environments[i]
		}
	}
	return nil
}

// Names returns the declared environment names in file order.
func (f *Envfile) Names() []EnvironmentName {
	names := make([]EnvironmentName, len(f.Environments))
	for i := range f.Environments {
		names[i] = f.Environments[i].Name
	}
	return names
}
