// SPDX-License-Identifier: MPL-2.0

package envfile

import (
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ErrInvalidActivationHook is the sentinel error wrapped by InvalidActivationHookError.
var ErrInvalidActivationHook = errors.New("invalid activation hook")

type (
	// ActivationHook is an optional shell command executed inside the
	// environment after it is materialized (e.g., printing a version
	// banner). The zero value ("") means no hook. The hook's semantics are
	// not validated here — only its shell syntax, so obviously broken
	// descriptors fail at parse time instead of at activation time.
	ActivationHook string

	// InvalidActivationHookError is returned when an ActivationHook fails
	// to parse as a POSIX shell command.
	InvalidActivationHookError struct {
		Value ActivationHook
		Cause error
	}
)

// Error implements the error interface.
func (e *InvalidActivationHookError) Error() string {
	return fmt.Sprintf("invalid activation hook %q: %v", e.Value, e.Cause)
}

// Unwrap returns ErrInvalidActivationHook so callers can use errors.Is for programmatic detection.
func (e *InvalidActivationHookError) Unwrap() error { return ErrInvalidActivationHook }

// IsValid returns whether the ActivationHook parses as POSIX shell,
// and a list of validation errors if it does not. The empty hook is valid.
func (h ActivationHook) IsValid() (bool, []error) {
	if h == "" {
		return true, nil
	}
	if _, err := syntax.NewParser().Parse(strings.NewReader(string(h)), "hook"); err != nil {
		return false, []error{&InvalidActivationHookError{Value: h, Cause: err}}
	}
	return true, nil
}

// IsSet reports whether a hook is configured.
func (h ActivationHook) IsSet() bool { return h != "" }

// String returns the string representation of the ActivationHook.
func (h ActivationHook) String() string { return string(h) }
