package cmd

import (
	"github.com/LaStefan/bpmn-process-optimization/internal/contract"
	"github.com/LaStefan/bpmn-process-optimization/sim"
	"github.com/spf13/cobra"
)

// checkCmd focused on CI/CD policy enforcement.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Enforce KPI thresholds for CI/CD pipelines (fails build on violations)",
	Long: `Simulate the configured planner and enforce KPI policy thresholds.

Designed for CI/CD integration - fails with non-zero exit code when the
planner's KPIs exceed acceptable levels on the reference scenario.

Default thresholds: wta:72, wth:24, nerv:1.0, cost:5e6

Use cases:
- Pull request gates - block planner changes that regress waiting times
- Release validation - ensure the shipped planner meets service levels
- Prevent regression - catch cost or nervousness increases automatically

Examples:
  # Check the heuristic planner against default thresholds
  bpo check

  # Custom thresholds per KPI
  bpo check --planner optimized --thresholds-override "wta:48,nerv:0.5"

  # Gate on a shorter scenario for fast CI runs
  bpo check --horizon "8 weeks" --thresholds-override "cost:1e6"`,
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		// Threshold evaluation is done in ExecuteCheck
		if err := sim.ExecuteCheck(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Policy check failed", err)
		}
	},
}
