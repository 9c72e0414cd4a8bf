package cmd

import (
	"github.com/LaStefan/bpmn-process-optimization/internal/contract"
	"github.com/LaStefan/bpmn-process-optimization/sim"
	"github.com/spf13/cobra"
)

// scheduleCmd renders the resource occupancy chart for a run.
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Visualize resource occupancy produced by a planner.",
	Long: `Simulate the configured planner and render an hour-of-week occupancy chart per resource.

The chart shows how busy each resource type (OR, A_BED, B_BED, INTAKE,
ER_PRACTITIONER) is across the week, averaged over the chart window. Use it to
spot weekend gaps, evening idle capacity and overload periods that drive
overtime cost.

Examples:
  # Chart weeks 2-4 of the default scenario
  bpo schedule

  # Zoom into a later window of a long run
  bpo schedule --chart-from "12 weeks" --chart-to "16 weeks"

  # Compare occupancy shapes between planners
  bpo schedule --planner baseline
  bpo schedule --planner optimized`,
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := sim.ExecuteSchedule(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot render schedule", err)
		}
	},
}
