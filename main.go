package main

import (
	"os"

	"github.com/hvga/hvga-og/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
