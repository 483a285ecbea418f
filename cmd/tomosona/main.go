// Package main provides the entry point for the tomosona CLI.
package main

import (
	"os"

	"github.com/jbl2024/tomosona/cmd/tomosona/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
