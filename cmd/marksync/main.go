// Package main is the entry point for the marksync host harness.
//
// marksync drives the editing core the way a native host would: the edit
// command is an interactive terminal host, the replay command feeds a
// JSON-lines event script through a session and prints every host
// notification.
package main

import (
	"fmt"
	"os"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newCLI(os.Stdin, os.Stdout, os.Stderr).command().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
