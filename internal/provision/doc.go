// SPDX-License-Identifier: MPL-2.0

// Package provision contains the activation backends that turn a registered
// environment definition into a running shell session. Three backends exist:
// command (delegates to an external provisioning tool), virtual (runs the
// activation hook in the embedded shell interpreter), and container (runs
// the session inside a podman/docker container).
//
// Backends report the session outcome as a Result; provisioner exit codes
// are forwarded to the caller unchanged.
package provision
