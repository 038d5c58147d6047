// SPDX-License-Identifier: MPL-2.0

// Package types provides small domain value types shared across packages,
// such as process exit codes and filesystem paths. Each type carries its
// own validation and a dedicated error wrapping a sentinel for errors.Is.
package types
