package main

import (
	"os"

	"github.com/fatih/color"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "✗ %s\n", err)
		os.Exit(1)
	}
}
