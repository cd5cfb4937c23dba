package main

import (
	"os"

	"github.com/Additional-Code/depot/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
