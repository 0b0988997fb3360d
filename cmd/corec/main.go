// Command corec drives the compiler core end to end: loading an irscript
// YAML fixture, running the seven-pass pipeline over it, and reporting
// either a rendered program or the first diagnostic raised.
package main

import (
	"fmt"
	"os"

	"github.com/kestrelsoft/corec/cmd/corec/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
