// Package main is the entry point for gdc, the GoodData analytics platform client.
package main

import (
	"gooddata/cli/cmd"
)

// main initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
