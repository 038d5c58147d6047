// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility utilities:
// OS name constants for runtime.GOOS comparisons and terminal detection
// used by provisioners to decide whether a PTY can be attached.
package platform
