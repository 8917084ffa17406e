// Command covenant declares contracts from CUE manifests and checks them
// on calls to the builtin catalog.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/covenant/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
