// Package main provides the dugong-cli tool for maintenance tasks.
package main

import (
	"os"

	"github.com/sirosfoundation/go-dugong/cmd/dugong-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
