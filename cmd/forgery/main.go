// Command forgery runs, validates and inspects factory simulations.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/forgery/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
