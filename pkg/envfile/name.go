// SPDX-License-Identifier: MPL-2.0

package envfile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidEnvironmentName is the sentinel error wrapped by InvalidEnvironmentNameError.
var ErrInvalidEnvironmentName = errors.New("invalid environment name")

type (
	// EnvironmentName represents an environment identifier, unique within
	// a registry. Names are matched exactly and case-sensitively; they are
	// registry keys, not paths, so no normalization is ever applied.
	// A valid name is non-empty and contains no whitespace or path separators.
	EnvironmentName string

	// InvalidEnvironmentNameError is returned when an EnvironmentName value
	// is empty or contains forbidden characters.
	InvalidEnvironmentNameError struct {
		Value  EnvironmentName
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidEnvironmentNameError) Error() string {
	return fmt.Sprintf("invalid environment name %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidEnvironmentName so callers can use errors.Is for programmatic detection.
func (e *InvalidEnvironmentNameError) Unwrap() error { return ErrInvalidEnvironmentName }

// IsValid returns whether the EnvironmentName is a valid environment
// identifier, and a list of validation errors if it is not.
func (n EnvironmentName) IsValid() (bool, []error) {
	s := string(n)
	switch {
	case s == "":
		return false, []error{&InvalidEnvironmentNameError{Value: n, Reason: "must not be empty"}}
	case strings.ContainsAny(s, " \t\n"):
		return false, []error{&InvalidEnvironmentNameError{Value: n, Reason: "must not contain whitespace"}}
	case strings.ContainsAny(s, `/\`):
		return false, []error{&InvalidEnvironmentNameError{Value: n, Reason: "must not contain path separators"}}
	}
	return true, nil
}

// String returns the string representation of the EnvironmentName.
func (n EnvironmentName) String() string { return string(n) }
