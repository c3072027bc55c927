// Package mcptools exposes coverage measurement and requirement tracing as
// Model Context Protocol tools.
package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewCoverageMCPServer creates an MCP server with the 3 coverage tools registered.
func NewCoverageMCPServer(svc *CoverageService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "spectrace",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "measure_coverage",
		Description: "Extract requirements, collect test results and compute specification coverage for a spectrace configuration. Returns the coverage summary.",
	}, svc.MeasureCoverage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_uncovered",
		Description: "List the requirements that no test covers in the most recent measurement.",
	}, svc.ListUncovered)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "trace_requirement",
		Description: "Show the test cases linked to a requirement id, with their status (passed, failed, skipped, pending or missing).",
	}, svc.TraceRequirement)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
