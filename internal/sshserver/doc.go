// SPDX-License-Identifier: MPL-2.0

// Package sshserver exposes the environment registry over SSH using the
// Wish library, so remote sessions can list and activate environments on
// this host. Only sessions spawned with a devshell-issued token may
// connect; authentication is token-based passwords, never public keys.
package sshserver
