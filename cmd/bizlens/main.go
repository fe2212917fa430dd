// Package main is the bizlens command-line client. It runs the same
// analysis pipeline as the server against a local report cache.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
