package main

import (
	"github.com/joho/godotenv"

	"github.com/eduplan-labs/eduplan-cli/internal/adapters/driving/cli"
)

func main() {
	// Load API keys from a local .env if present; a missing file is fine.
	_ = godotenv.Load()

	cli.Execute()
}
