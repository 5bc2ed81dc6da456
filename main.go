// ABOUTME: Entry point for the placement CLI
// ABOUTME: Command-line and terminal UI client for the internship placement platform

package main

import (
	"fmt"
	"os"

	"github.com/markalston/placement-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
