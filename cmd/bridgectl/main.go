package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Seed the process environment from a .env in the working directory
	// before anything snapshots it. A missing file is fine.
	_ = godotenv.Load()

	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", red("error:"), err)
		os.Exit(1)
	}
}
