package main

import (
	"os"

	"github.com/Labs64/labs64.io-auditflow/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
