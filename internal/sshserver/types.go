// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidHostAddress is the sentinel error wrapped by InvalidHostAddressError.
	ErrInvalidHostAddress = errors.New("invalid host address")
	// ErrInvalidTokenValue is the sentinel error wrapped by InvalidTokenValueError.
	ErrInvalidTokenValue = errors.New("invalid token value")
	// ErrInvalidListenPort is the sentinel error wrapped by InvalidListenPortError.
	ErrInvalidListenPort = errors.New("invalid listen port")
	// ErrInvalidSSHConfig is the sentinel error wrapped by InvalidSSHConfigError.
	ErrInvalidSSHConfig = errors.New("invalid SSH server config")
)

type (
	// HostAddress represents a network host address (IP or hostname) for server binding.
	// A valid address must be non-empty and not whitespace-only.
	HostAddress string

	// TokenValue represents an authentication token value for remote sessions.
	// A valid token must be non-empty and not whitespace-only.
	TokenValue string

	// ListenPort represents a TCP port to listen on. Port 0 requests
	// auto-selection by the kernel.
	ListenPort int

	// InvalidHostAddressError is returned when a HostAddress value is
	// empty or whitespace-only.
	InvalidHostAddressError struct {
		Value HostAddress
	}

	// InvalidTokenValueError is returned when a TokenValue value is
	// empty or whitespace-only.
	InvalidTokenValueError struct {
		Value TokenValue
	}

	// InvalidListenPortError is returned when a ListenPort is outside 0-65535.
	InvalidListenPortError struct {
		Value ListenPort
	}

	// InvalidSSHConfigError is returned when a server Config has invalid fields.
	// It wraps ErrInvalidSSHConfig for errors.Is() compatibility and collects
	// field-level validation errors from Host, Port, and DefaultShell.
	InvalidSSHConfigError struct {
		FieldErrors []error
	}
)

// String returns the string representation of the HostAddress.
func (h HostAddress) String() string { return string(h) }

// Validate returns nil if the HostAddress is valid (non-empty and not whitespace-only),
// or an error wrapping ErrInvalidHostAddress if it is not.
func (h HostAddress) Validate() error {
	if strings.TrimSpace(string(h)) == "" {
		return &InvalidHostAddressError{Value: h}
	}
	return nil
}

// String returns the string representation of the TokenValue.
func (t TokenValue) String() string { return string(t) }

// Validate returns nil if the TokenValue is valid (non-empty and not whitespace-only),
// or an error wrapping ErrInvalidTokenValue if it is not.
func (t TokenValue) Validate() error {
	if strings.TrimSpace(string(t)) == "" {
		return &InvalidTokenValueError{Value: t}
	}
	return nil
}

// Validate returns nil if the ListenPort is within 0-65535, or an error
// wrapping ErrInvalidListenPort if it is not.
func (p ListenPort) Validate() error {
	if p < 0 || p > 65535 {
		return &InvalidListenPortError{Value: p}
	}
	return nil
}

// Error implements the error interface for InvalidHostAddressError.
func (e *InvalidHostAddressError) Error() string {
	return fmt.Sprintf("invalid host address %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidHostAddress for errors.Is() compatibility.
func (e *InvalidHostAddressError) Unwrap() error { return ErrInvalidHostAddress }

// Error implements the error interface for InvalidTokenValueError.
func (e *InvalidTokenValueError) Error() string {
	return fmt.Sprintf("invalid token value %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidTokenValue for errors.Is() compatibility.
func (e *InvalidTokenValueError) Unwrap() error { return ErrInvalidTokenValue }

// Error implements the error interface for InvalidListenPortError.
func (e *InvalidListenPortError) Error() string {
	return fmt.Sprintf("invalid listen port %d (must be in range 0-65535)", e.Value)
}

// Unwrap returns ErrInvalidListenPort for errors.Is() compatibility.
func (e *InvalidListenPortError) Unwrap() error { return ErrInvalidListenPort }

// Error implements the error interface for InvalidSSHConfigError.
func (e *InvalidSSHConfigError) Error() string {
	return fmt.Sprintf("invalid SSH server config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidSSHConfig for errors.Is() compatibility.
func (e *InvalidSSHConfigError) Unwrap() error { return ErrInvalidSSHConfig }
