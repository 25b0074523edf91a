package main

// Entry point: runs the cobra command tree and exits 1 on command errors.

import (
	"fmt"
	"os"

	"price-tracker/cmd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
