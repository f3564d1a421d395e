// Package main provides the MCP server entry point for crashlogctl.
// This server implements the Model Context Protocol, enabling AI-assisted
// triage of Bethesda-game crash logs through scan_log/scan_batch/get_report.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"scanner111/src/analyzer"
	"scanner111/src/config"
	"scanner111/src/logger"
	"scanner111/src/mcpserver"
	"scanner111/src/pipeline"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	log := logger.NewSilentLogger()
	analyzers, err := analyzer.Build(log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build analyzers: %v\n", err)
		os.Exit(1)
	}

	p := pipeline.New(analyzers, log, cfg.EnableCaching)
	server := mcpserver.NewServer(p)

	if err := server.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}
