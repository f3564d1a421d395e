package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"scanner111/src/pipeline"
)

// parsePathsArg extracts and validates the "paths" array argument of
// scan_batch, without depending on any live MCP request machinery.
func parsePathsArg(args map[string]any) ([]string, error) {
	raw, ok := args["paths"].([]any)
	if !ok || len(raw) == 0 {
		return nil, errors.New("paths must be a non-empty array of strings")
	}

	paths := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, errors.New("paths must contain only strings")
		}
		paths = append(paths, s)
	}
	return paths, nil
}

// registerScanLogTool registers scan_log(path): analyze one crash log and
// return its composed report text.
func registerScanLogTool(s *server.MCPServer, p *pipeline.ScanPipeline) {
	tool := mcp.NewTool("scan_log",
		mcp.WithDescription("Analyze a single Bethesda-game crash log and return a diagnostic report."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path to the crash log file.")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := p.ProcessSingle(ctx, path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		text := fmt.Sprintf("Status: %s\n\n%s", result.Status, result.ReportText)
		if len(result.ErrorMessages) > 0 {
			text += "\n\nErrors:\n" + strings.Join(result.ErrorMessages, "\n")
		}
		return mcp.NewToolResultText(text), nil
	})
}

// registerScanBatchTool registers scan_batch(paths[]): analyze multiple
// crash logs and return a summary of each.
func registerScanBatchTool(s *server.MCPServer, p *pipeline.ScanPipeline) {
	tool := mcp.NewTool("scan_batch",
		mcp.WithDescription("Analyze a batch of crash logs and return a per-log summary."),
		mcp.WithArray("paths", mcp.Required(), mcp.Description("Absolute paths to the crash log files.")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		paths, err := parsePathsArg(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		ch, err := p.ProcessBatch(ctx, paths, pipeline.ScanOptions{PreserveOrder: true, EnableCaching: true}, nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var sb strings.Builder
		for result := range ch {
			fmt.Fprintf(&sb, "%s: %s (%d analysis fragments, %d errors)\n",
				result.LogPath, result.Status, len(result.AnalysisResults), len(result.ErrorMessages))
		}
		return mcp.NewToolResultText(sb.String()), nil
	})
}

// registerGetReportTool registers get_report(path): re-scan and return only
// the plain report text for one log.
func registerGetReportTool(s *server.MCPServer, p *pipeline.ScanPipeline) {
	tool := mcp.NewTool("get_report",
		mcp.WithDescription("Return the plain diagnostic report text for one crash log."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path to the crash log file.")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := p.ProcessSingle(ctx, path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result.ReportText), nil
	})
}
