// Package main is the verokit command.
package main

import (
	"os"

	"github.com/leapstack-labs/verokit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
