package main

import (
	"os"

	"github.com/mesahq/mesa/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
