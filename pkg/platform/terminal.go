// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"

	"github.com/mattn/go-isatty"
)

// StdinIsTerminal reports whether stdin is attached to a terminal.
// Provisioners use this to decide between PTY-attached interactive
// sessions and plain stdio inheritance (e.g., when piped in CI).
func StdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// StdoutIsTerminal reports whether stdout is attached to a terminal.
func StdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
