package main

import (
	"os"

	"github.com/bobmcallan/dns-mcp/internal/config"
)

func main() {
	config.LoadVersionFromFile()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
