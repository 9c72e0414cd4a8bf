// Package main provides a performance benchmarking tool for the bpo CLI.
// It measures simulation times across different horizons and planners,
// running each test multiple times, once without run tracking and then with
// the SQLite store enabled, generating CSV output for performance analysis
// and documentation.
//
// Prerequisites:
// - bpo binary installed and available in PATH
//
// Usage: go run benchmark/main.go [results-dir]
//
//	results-dir: Directory to write the benchmark CSV to
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the timing of one command at one horizon (average
// without run tracking and average with the SQLite store).
type BenchmarkResult struct {
	Horizon     string
	Command     string
	Planner     string
	NoStoreTime string
	StoreTime   string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	ResultsDir string
	Timeout    time.Duration
	Seed       int64
	Runs       int
	Horizons   []string
	Planners   []string
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [results-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		ResultsDir: os.Args[1],
		Timeout:    5 * time.Minute,
		Seed:       2018,
		Runs:       3,
		Horizons:   []string{"4 weeks", "26 weeks", "52 weeks", "104 weeks"},
		Planners:   []string{"baseline", "heuristic", "optimized"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	// Clear any previous run tracking data
	fmt.Printf("Clearing run store...\n")
	clearCmd := exec.Command("bpo", "runs", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear run store: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Run store cleared successfully\n")
	}

	results := runBenchmarks(config)

	if err := saveResults(config, results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the bpo binary and results directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("bpo"); err != nil {
		return fmt.Errorf("bpo binary not found in PATH")
	}

	if _, err := os.Stat(config.ResultsDir); os.IsNotExist(err) {
		return fmt.Errorf("results directory not found at %s", config.ResultsDir)
	}

	return nil
}

// runBenchmarks executes all benchmark tests across configured horizons
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d horizons, %v timeout, %d runs per phase, seed %d\n",
		len(config.Horizons), config.Timeout, config.Runs, config.Seed)

	for _, horizon := range config.Horizons {
		fmt.Printf("Benchmarking horizon %s\n", horizon)

		// Single-planner runs
		for _, planner := range config.Planners {
			args := fmt.Sprintf("--planner %s", planner)
			desc := fmt.Sprintf("run (%s)", planner)
			result := runBenchmarkSuite(config, horizon, "run", planner, desc, args)
			results = append(results, result)
		}

		// Comparison of all planners on the same stream
		result := runBenchmarkSuite(config, horizon, "compare", "all", "compare (all planners)", "")
		results = append(results, result)
	}

	return results
}

// runBenchmarkSuite runs both no-store and store benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, horizon, command, planner, description, extraArgs string) BenchmarkResult {
	fmt.Printf("Running %s at horizon %s\n", description, horizon)

	// Helper to run a benchmark phase
	runPhase := func(storeBackend, phaseName string) string {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, config.Runs)
		times := runBenchmark(config, horizon, command, extraArgs, storeBackend)
		if len(times) == 0 {
			return "TIMEOUT"
		}
		var sum float64
		for _, t := range times {
			sum += t
		}
		return fmt.Sprintf("%.3fs", sum/float64(len(times)))
	}

	// Phase 1: Simulation only
	noStoreAvg := runPhase("none", "No-store")

	// Phase 2: Simulation plus SQLite run tracking
	storeAvg := runPhase("sqlite", "Store")

	fmt.Printf("  No-store average: %s, Store average: %s\n", noStoreAvg, storeAvg)

	return BenchmarkResult{
		Horizon:     horizon,
		Command:     command,
		Planner:     planner,
		NoStoreTime: noStoreAvg,
		StoreTime:   storeAvg,
	}
}

// runBenchmark executes a bpo command multiple times with the specified store
// backend and returns the wall-clock times of the successful runs
func runBenchmark(config BenchmarkConfig, horizon, command, extraArgs, storeBackend string) []float64 {
	args := []string{
		command,
		"--horizon", horizon,
		"--seed", fmt.Sprintf("%d", config.Seed),
		"--store-backend", storeBackend,
	}
	if extraArgs != "" {
		args = append(args, parseArgs(extraArgs)...)
	}

	var times []float64
	for run := 1; run <= config.Runs; run++ {
		start := time.Now()

		cmd := exec.Command("bpo", args...)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output, command) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
		}
	}

	return times
}

func parseArgs(argsStr string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false

	for _, r := range argsStr {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ' ':
			if !inQuotes && current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			} else if inQuotes {
				current.WriteRune(r)
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte, command string) bool {
	outputStr := string(output)

	var completionPhrase string
	if command == "compare" {
		completionPhrase = "Comparison completed in"
	} else {
		completionPhrase = "Simulation completed in"
	}

	return strings.Contains(outputStr, completionPhrase)
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(config BenchmarkConfig, results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(config.ResultsDir, fmt.Sprintf("bpo_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"horizon", "cmd", "planner", "no_store_avg", "store_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Horizon, result.Command, result.Planner, result.NoStoreTime, result.StoreTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "run", "Single-planner Runs:")
	printCommandSummary(results, "compare", "Planner Comparisons:")

	fmt.Printf("Benchmark script completed successfully\n")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-10s %-10s: No-store: %s, Store: %s\n", result.Horizon, result.Planner, result.NoStoreTime, result.StoreTime)
		}
	}
}
