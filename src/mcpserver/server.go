// Package mcpserver exposes the scan pipeline as an MCP (Model Context
// Protocol) tool surface, for AI-assisted crash-log triage.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"scanner111/src/pipeline"
)

// Server wraps the MCP SDK server with crash-log diagnostic tools.
type Server struct {
	mcp *server.MCPServer
}

// NewServer creates an MCP server with scan_log, scan_batch, and get_report
// registered, each a thin wrapper over p.
func NewServer(p *pipeline.ScanPipeline) *Server {
	mcpServer := server.NewMCPServer("crashlogctl", "1.0.0")

	registerScanLogTool(mcpServer, p)
	registerScanBatchTool(mcpServer, p)
	registerGetReportTool(mcpServer, p)

	return &Server{mcp: mcpServer}
}

// Run starts the MCP server over stdin/stdout.
func (s *Server) Run(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}
