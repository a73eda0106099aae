// Package main is the entry point for the sourcing CLI.
package main

import (
	"os"

	"github.com/Simplici0/sourcing/cmd/sourcing/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
