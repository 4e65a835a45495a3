package main

import (
	"os"

	"github.com/d1j/facebook-stats/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
