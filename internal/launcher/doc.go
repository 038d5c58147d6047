// SPDX-License-Identifier: MPL-2.0

// Package launcher resolves an environment name against the registry and
// hands the definition to a provisioner. It owns the unknown-name failure
// contract (a fixed stderr message and exit 1) and otherwise forwards the
// provisioner's exit code unchanged.
package launcher
