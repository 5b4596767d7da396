package main

import (
	"fmt"
	"os"

	"ttgen/cmd/ttgen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ttgen: %v\n", err)
		os.Exit(1)
	}
}
