// SPDX-License-Identifier: MPL-2.0

// Package config loads and validates the devshell user configuration.
//
// Configuration lives in a CUE file under the platform config directory
// (config.cue), is validated against an embedded schema, and is merged
// through viper over built-in defaults. A missing config file is not an
// error; explicit paths that fail to load are.
package config
