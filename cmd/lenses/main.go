// Package main is the entry point of the lenses CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/lenses/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
