// Package main implements the Racetag Backend entry point.
package main

import (
	"os"

	"github.com/racetag/racetag/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
