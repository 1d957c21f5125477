// Command erpdesk serves the desk API for report filters and item label
// forms, and runs the same operations from the command line.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
