// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/decoupage/decoupage/cmd/decoupage"

func main() {
	cmd.Execute()
}
