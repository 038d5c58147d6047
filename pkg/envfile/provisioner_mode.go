// SPDX-License-Identifier: MPL-2.0

package envfile

import (
	"errors"
	"fmt"
)

const (
	// ProvisionerCommand delegates activation to an external provisioning
	// tool (the default collaborator, e.g., a nix develop wrapper).
	ProvisionerCommand ProvisionerMode = "command"
	// ProvisionerVirtual activates the environment in the embedded
	// mvdan/sh interpreter (hook execution only, no package materialization).
	ProvisionerVirtual ProvisionerMode = "virtual"
	// ProvisionerContainer activates the environment inside a container
	// (Docker/Podman) built from the environment's base image.
	ProvisionerContainer ProvisionerMode = "container"
)

// ErrInvalidProvisionerMode is the sentinel error wrapped by InvalidProvisionerModeError.
var ErrInvalidProvisionerMode = errors.New("invalid provisioner mode")

type (
	// ProvisionerMode selects which provisioner activates an environment.
	// The zero value ("") means "use the configured default".
	ProvisionerMode string

	// InvalidProvisionerModeError is returned when a ProvisionerMode value
	// is not one of the defined modes.
	InvalidProvisionerModeError struct {
		Value ProvisionerMode
	}
)

// Error implements the error interface.
func (e *InvalidProvisionerModeError) Error() string {
	return fmt.Sprintf("invalid provisioner mode %q (valid: command, virtual, container)", e.Value)
}

// Unwrap returns ErrInvalidProvisionerMode so callers can use errors.Is for programmatic detection.
func (e *InvalidProvisionerModeError) Unwrap() error { return ErrInvalidProvisionerMode }

// IsValid returns whether the ProvisionerMode is one of the defined modes,
// and a list of validation errors if it is not. The zero value is valid.
func (m ProvisionerMode) IsValid() (bool, []error) {
	switch m {
	case "", ProvisionerCommand, ProvisionerVirtual, ProvisionerContainer:
		return true, nil
	default:
		return false, []error{&InvalidProvisionerModeError{Value: m}}
	}
}

// String returns the string representation of the ProvisionerMode.
func (m ProvisionerMode) String() string { return string(m) }

// IsSet reports whether the environment pins a provisioner, as opposed to
// deferring to the configured default.
func (m ProvisionerMode) IsSet() bool { return m != "" }

// ParseProvisionerMode parses a string into a ProvisionerMode.
// Returns zero value ("") for empty input, which serves as the "no override" sentinel.
func ParseProvisionerMode(value string) (ProvisionerMode, error) {
	mode := ProvisionerMode(value)
	if isValid, errs := mode.IsValid(); !isValid {
		return "", errs[0]
	}
	return mode, nil
}
