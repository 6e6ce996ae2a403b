package main

import (
	"fmt"
	"os"

	"aptracker/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		l := logger.WithComponent("apctl")
		l.Error().Err(err).Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
