// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/LaStefan/bpmn-process-optimization/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the bpo MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Hospital Admission Simulation Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: run_simulation ---
	s.AddTool(mcp.NewTool("run_simulation",
		mcp.WithDescription("Run a hospital admission simulation with one planner and return its KPI report."),
		mcp.WithString("planner", mcp.Description("Planning policy (baseline, heuristic, optimized). Defaults to 'heuristic'."), mcp.Enum("baseline", "heuristic", "optimized")),
		mcp.WithNumber("seed", mcp.Description("Random seed for the patient arrival stream.")),
		mcp.WithString("horizon", mcp.Description("Simulation horizon (e.g., '365 days', '6 months', '4 weeks').")),
	), h.handleRunSimulation)

	// --- 2. Tool: compare_planners ---
	s.AddTool(mcp.NewTool("compare_planners",
		mcp.WithDescription("Simulate multiple planning policies on the same patient stream and rank them by composite score."),
		mcp.WithString("planners", mcp.Description("Comma-separated planners to compare (defaults to all three).")),
		mcp.WithNumber("seed", mcp.Description("Random seed for the patient arrival stream.")),
		mcp.WithString("horizon", mcp.Description("Simulation horizon (e.g., '365 days', '6 months').")),
	), h.handleComparePlanners)

	// --- 3. Tool: get_kpi_definitions ---
	s.AddTool(mcp.NewTool("get_kpi_definitions",
		mcp.WithDescription("List the KPI definitions, formulas and active composite score weights."),
	), h.handleGetKPIDefinitions)

	return s
}

// StartMCPServer starts the bpo MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
