// Command nodeflux serves the node catalogue over HTTP or MCP and runs
// single nodes from the command line.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
