// SPDX-License-Identifier: MPL-2.0

// Package registry holds the immutable name-to-environment mapping built
// from one or more parsed envfiles. Lookups are exact and case-sensitive;
// listing preserves declaration order across source files.
package registry
