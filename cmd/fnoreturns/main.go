package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"fno-returns/internal/cli"
	"fno-returns/internal/logging"
)

func main() {
	// FNORETURNS_* overrides may live in a local .env file.
	_ = godotenv.Load()

	// Config is loaded by the root command once --config is known; the
	// default logger covers anything logged before that.
	if err := cli.NewRootCmd(nil, logging.NewLogger()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
