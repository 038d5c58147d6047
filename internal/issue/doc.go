// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error infrastructure: the
// ActionableError builder for contextual error messages with fix
// suggestions, and a catalog of known failure conditions with
// markdown-rendered explanations.
package issue
