// SPDX-License-Identifier: MPL-2.0

package main

import cmd "devshell-cli/cmd/devshell"

func main() {
	cmd.Execute()
}
