package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/veldt-labs/bookrag/internal/adapters/driving/cli"
)

func main() {
	// Optional .env in the working directory; real env vars win.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
