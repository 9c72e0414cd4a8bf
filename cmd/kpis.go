package cmd

import (
	"github.com/LaStefan/bpmn-process-optimization/internal/contract"
	"github.com/LaStefan/bpmn-process-optimization/sim"
	"github.com/spf13/cobra"
)

// kpisCmd prints the KPI definitions and active weights.
var kpisCmd = &cobra.Command{
	Use:   "kpis",
	Short: "Explain the KPIs and the composite score.",
	Long: `Show definitions, formulas and active weights for all simulation KPIs.

No simulation is performed. The weights reflect the current configuration,
including any overrides from the config file.

Examples:
  # Show KPI definitions with default weights
  bpo kpis

  # Export definitions for documentation
  bpo kpis --output json`,
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := sim.ExecuteKPIs(cfg); err != nil {
			contract.LogFatal("Cannot print KPI definitions", err)
		}
	},
}
