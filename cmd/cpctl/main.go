// cpctl is the operator CLI for the control plane
package main

import (
	"os"

	"github.com/avantlehq/core-avantle-ai/cmd/cpctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
