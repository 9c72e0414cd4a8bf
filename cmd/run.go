package cmd

import (
	"github.com/LaStefan/bpmn-process-optimization/internal/contract"
	"github.com/LaStefan/bpmn-process-optimization/sim"
	"github.com/spf13/cobra"
)

// runCmd simulates a single planner.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate one planner and report its KPIs.",
	Long: `Run the hospital admission simulation with a single planner and print the KPI report.

The simulation generates elective and emergency patient arrivals from the seed,
drives them through intake, surgery and nursing, and lets the planner decide
admission dates and resource schedules along the way.

Reported KPIs:
- wta  - mean/max hours patients wait for admission
- wth  - mean hours patients wait inside the hospital
- nerv - replanning events per planned case
- cost - personnel cost split by regular, short-term and overtime rates

Examples:
  # Simulate the default heuristic planner for a year
  bpo run

  # Simulate the optimized planner on a different scenario
  bpo run --planner optimized --seed 42 --horizon "26 weeks"

  # Write the full event log for conformance tooling
  bpo run --eventlog events.csv --data-columns diagnosis

  # Export per-case outcomes to CSV
  bpo run --output csv --output-file outcomes.csv`,
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := sim.ExecuteRun(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run simulation", err)
		}
	},
}
