package simstore

import (
	"errors"
	"fmt"

	"github.com/LaStefan/bpmn-process-optimization/internal/parquet"
)

// ExecuteRunsExport performs the actual export of run data to Parquet files.
func ExecuteRunsExport(outputFile string) error {
	// Validate that output file is specified
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	// Get the run store
	store := Manager.GetRunStore()
	if store == nil {
		return errors.New("run tracking is not initialized")
	}

	// Check if there's any data to export
	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run store status: %w", err)
	}

	if status.TotalRuns == 0 {
		return errors.New("no run data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total simulation runs: %d\n", status.TotalRuns)
	fmt.Printf("Total case records: %d\n", status.TableSizes[caseOutcomesTable])

	// Retrieve all simulation runs
	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve simulation runs: %w", err)
	}

	// Retrieve all case outcomes
	outcomes, err := store.GetAllCaseOutcomes()
	if err != nil {
		return fmt.Errorf("failed to retrieve case outcomes: %w", err)
	}

	// Convert to Parquet format
	parquetRuns := parquet.ConvertRunRecords(runs)
	parquetOutcomes := parquet.ConvertCaseOutcomeRecords(outcomes)

	// Write simulation runs to Parquet
	runsFile := outputFile + ".simulation_runs.parquet"
	if err := parquet.WriteSimulationRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write simulation runs: %w", err)
	}
	fmt.Printf("Exported %d simulation runs to: %s\n", len(parquetRuns), runsFile)

	// Write case outcomes to Parquet
	outcomesFile := outputFile + ".case_outcomes.parquet"
	if err := parquet.WriteCaseOutcomesParquet(parquetOutcomes, outcomesFile); err != nil {
		return fmt.Errorf("failed to write case outcomes: %w", err)
	}
	fmt.Printf("Exported %d case outcome records to: %s\n", len(parquetOutcomes), outcomesFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Apache Arrow")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Any other Parquet-compatible tool")

	return nil
}
