package main

import (
	"os"

	"github.com/hermes-labs/keeper/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
