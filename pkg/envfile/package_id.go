// SPDX-License-Identifier: MPL-2.0

package envfile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPackageID is the sentinel error wrapped by InvalidPackageIDError.
var ErrInvalidPackageID = errors.New("invalid package identifier")

type (
	// PackageID identifies a single package inside an environment's package
	// list (e.g., "python314", "pkg-config"). The identifier is opaque to
	// this system; resolution is the provisioner's concern. A valid
	// identifier is non-empty and not whitespace-only.
	PackageID string

	// InvalidPackageIDError is returned when a PackageID value is empty
	// or whitespace-only.
	InvalidPackageIDError struct {
		Value PackageID
	}
)

// Error implements the error interface.
func (e *InvalidPackageIDError) Error() string {
	return fmt.Sprintf("invalid package identifier %q (must not be empty or whitespace-only)", e.Value)
}

// Unwrap returns ErrInvalidPackageID so callers can use errors.Is for programmatic detection.
func (e *InvalidPackageIDError) Unwrap() error { return ErrInvalidPackageID }

// IsValid returns whether the PackageID is a valid package identifier,
// and a list of validation errors if it is not.
func (p PackageID) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidPackageIDError{Value: p}}
	}
	return true, nil
}

// String returns the string representation of the PackageID.
func (p PackageID) String() string { return string(p) }
