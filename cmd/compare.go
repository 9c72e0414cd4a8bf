package cmd

import (
	"github.com/LaStefan/bpmn-process-optimization/internal/contract"
	"github.com/LaStefan/bpmn-process-optimization/sim"
	"github.com/spf13/cobra"
)

// compareCmd simulates several planners on the same scenario.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Rank planners against each other on one scenario.",
	Long: `Simulate multiple planners on the identical patient scenario and rank them by composite score.

Every planner sees the same arrivals (same seed, same horizon), so KPI
differences are caused by planning decisions alone. Runs execute concurrently
across the configured workers.

Examples:
  # Compare all planners on the default scenario
  bpo compare

  # Compare a subset with extra KPI columns
  bpo compare --planners heuristic,optimized --detail

  # Export the ranking for dashboards
  bpo compare --output csv --output-file ranking.csv`,
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := sim.ExecuteCompare(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run comparison", err)
		}
	},
}
