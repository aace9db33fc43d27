// Package main is the entry point for the Perch CLI.
package main

import (
	"os"

	"github.com/perchlabs/perch/cmd/perch/app"
	"github.com/perchlabs/perch/pkg/logger"
)

func main() {
	// Initialize the logger
	logger.Initialize()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
