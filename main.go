package main

import (
	"os"

	"github.com/matriops/lifeline/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
