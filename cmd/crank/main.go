// Package main provides the crank feature extraction CLI.
//
// Usage:
//
//	crank extract [flags] <wav-file-or-dir>...
package main

import (
	"fmt"
	"os"

	"github.com/oytunturk/crank/cmd/crank/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
