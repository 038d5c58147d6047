// SPDX-License-Identifier: MPL-2.0

// Package envfile defines the declarative environment descriptor format.
//
// An envfile (devshell.cue, or devshell.toml for projects that prefer
// TOML) declares one or more named, reproducible development
// environments: a package list, an optional activation hook, and
// optional provisioner preferences. Files are validated against an
// embedded CUE schema on parse; structural constraints the schema
// cannot express (unique names, hook syntax) are checked in Go and
// aggregated into ValidationErrors.
package envfile
