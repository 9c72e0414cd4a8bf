package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/LaStefan/bpmn-process-optimization/internal/contract"
	"github.com/LaStefan/bpmn-process-optimization/schema"
	"github.com/LaStefan/bpmn-process-optimization/sim"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

func (h *toolHandler) handleRunSimulation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("planner", ""); p != "" {
		cfg.Planner = schema.PlannerKind(p)
		if _, ok := schema.ValidPlannerKinds[cfg.Planner]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid planner: %s", p)), nil
		}
	}
	if s := request.GetInt("seed", 0); s != 0 {
		cfg.Seed = int64(s)
	}
	if err := contract.RevalidateHorizon(cfg, request.GetString("horizon", "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid simulation parameters: %v", err)), nil
	}

	result, err := sim.GetRunResults(ctx, cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("simulation failed: %v", err)), nil
	}

	// Per-case outcomes can run into the tens of thousands; the report
	// carries the aggregates the agent needs.
	result.Outcomes = nil
	jsonData, _ := json.MarshalIndent(result, "", "  ")

	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleComparePlanners(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if s := request.GetInt("seed", 0); s != 0 {
		cfg.Seed = int64(s)
	}
	if err := contract.RevalidatePlanners(cfg, request.GetString("planners", "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid comparison parameters: %v", err)), nil
	}
	if err := contract.RevalidateHorizon(cfg, request.GetString("horizon", "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid comparison parameters: %v", err)), nil
	}

	comparison, err := sim.GetCompareResults(ctx, cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("comparison failed: %v", err)), nil
	}

	for i := range comparison.Runs {
		comparison.Runs[i].Outcomes = nil
	}
	jsonData, _ := json.MarshalIndent(comparison, "", "  ")

	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetKPIDefinitions(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	model := sim.KPIDefinitions(h.baseCfg.KPIWeights)
	jsonData, _ := json.MarshalIndent(model, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
