// Command sagasim replays saga scenarios described in YAML and shows how the
// engine executes and rolls them back.
package main

import (
	"errors"
	"fmt"
	"os"
)

const (
	exitSuccess    = 0
	exitSagaFailed = 1
	exitError      = 2
)

func main() {
	cmd := newRootCmd(os.Stdout)
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, errSagaFailed) {
			os.Exit(exitSagaFailed)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
	os.Exit(exitSuccess)
}
