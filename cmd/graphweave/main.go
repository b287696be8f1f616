package main

import (
	"os"

	"github.com/graphweave/graphweave/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
