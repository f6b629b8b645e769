// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/cargoscope/cargoscope/cmd/cargoscope"

func main() {
	cmd.Execute()
}
