// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/pkgpulse/pkgpulse/cmd/pkgpulse"

func main() {
	cmd.Execute()
}
