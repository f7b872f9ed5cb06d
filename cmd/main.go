package main

import (
	"os"

	"github.com/meisofts/BrainStorm/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
