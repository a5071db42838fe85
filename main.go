// SPDX-License-Identifier: MPL-2.0

// Command loom loads content modules into a type universe.
package main

import cmd "github.com/loomkit/loom/cmd/loom"

func main() {
	cmd.Execute()
}
