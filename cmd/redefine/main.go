// Package main provides the redefine CLI and MCP server.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Exit codes
const (
	exitSuccess   = 0
	exitUserError = 1
)

func main() {
	// A missing .env is fine
	_ = godotenv.Load()

	// stdout is reserved for command output and the MCP protocol
	log.SetOutput(os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
	os.Exit(exitSuccess)
}
