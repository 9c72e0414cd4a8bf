package sim

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/LaStefan/bpmn-process-optimization/internal/contract"
	"github.com/LaStefan/bpmn-process-optimization/internal/outwriter"
	"github.com/LaStefan/bpmn-process-optimization/schema"
)

// ExecuteRun simulates a single planner and prints the KPI report.
func ExecuteRun(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	printRunHeader(cfg, cfg.Planner)

	result, err := GetRunResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}

	return outwriter.WriteRunResult(result, cfg, time.Since(start))
}

// GetRunResults simulates the configured planner and returns the run result
// without printing. This is the entry point for programmatic consumers like
// the MCP server.
func GetRunResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (*schema.RunResult, error) {
	result, _, err := runOne(ctx, cfg, cfg.Planner, cfg.EventLogFile)
	if err != nil {
		return nil, err
	}
	recordRun(mgr, result)
	return result, nil
}

// ExecuteCompare simulates every configured planner on the same scenario
// using a worker pool, then prints a side-by-side comparison.
func ExecuteCompare(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	fmt.Printf("🔎 Comparing %d planners over %.0f days (seed %d)...\n",
		len(cfg.Planners), cfg.HorizonHours/schema.HoursPerDay, cfg.Seed)

	comparison, err := GetCompareResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}

	return outwriter.WriteComparison(comparison, cfg, time.Since(start))
}

// GetCompareResults simulates every configured planner on the same scenario
// using a worker pool and returns the comparison without printing.
func GetCompareResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (*schema.ComparisonResult, error) {
	type slot struct {
		result *schema.RunResult
		err    error
	}
	slots := make([]slot, len(cfg.Planners))

	// Worker pool over planners. Each worker writes to a unique index,
	// which keeps the slice access race-free.
	plannerCh := make(chan int, len(cfg.Planners))
	var wg sync.WaitGroup
	workers := min(cfg.Workers, len(cfg.Planners))
	for range workers {
		wg.Go(func() {
			for idx := range plannerCh {
				kind := cfg.Planners[idx]
				runCfg := cfg.CloneWithPlanner(kind)
				result, _, err := runOne(ctx, runCfg, kind, plannerEventLogPath(cfg.EventLogFile, kind))
				slots[idx] = slot{result: result, err: err}
			}
		})
	}
	for idx := range cfg.Planners {
		plannerCh <- idx
	}
	close(plannerCh)
	wg.Wait()

	comparison := &schema.ComparisonResult{Seed: cfg.Seed, Horizon: cfg.HorizonHours}
	for _, sl := range slots {
		if sl.err != nil {
			return nil, sl.err
		}
		recordRun(mgr, sl.result)
		comparison.Runs = append(comparison.Runs, *sl.result)
	}

	best := comparison.Runs[0]
	for _, run := range comparison.Runs[1:] {
		if run.Report.Score < best.Report.Score {
			best = run
		}
	}
	comparison.Best = best.Planner

	return comparison, nil
}

// ExecuteCheck runs the configured planner and gates on KPI thresholds.
// It exits non-zero when any threshold is breached, for CI/CD pipelines.
func ExecuteCheck(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	printRunHeader(cfg, cfg.Planner)

	result, _, err := runOne(ctx, cfg, cfg.Planner, cfg.EventLogFile)
	if err != nil {
		return err
	}
	recordRun(mgr, result)

	check := evaluateThresholds(result, cfg.Thresholds)
	printCheckResult(check, time.Since(start))

	if !check.Passed {
		fmt.Printf("%d violation(s) found\n", len(check.Violations))
		os.Exit(1)
	}
	return nil
}

// printCheckResult prints the check result in a concise format suitable for CI/CD.
func printCheckResult(result *schema.CheckResult, duration time.Duration) {
	fmt.Println("KPI Check Results:")

	labels := []string{"Planner:", "Thresholds:"}
	values := []any{
		result.Planner,
		fmt.Sprintf("wta=%.1f, wth=%.1f, nerv=%.2f, cost=%.0f",
			result.Thresholds[schema.KPIWaitingAdmission],
			result.Thresholds[schema.KPIWaitingHospital],
			result.Thresholds[schema.KPINervousness],
			result.Thresholds[schema.KPICost]),
	}
	maxLabelLen := 0
	for _, label := range labels {
		if len(label) > maxLabelLen {
			maxLabelLen = len(label)
		}
	}
	for i, label := range labels {
		fmt.Printf("  %-*s %v\n", maxLabelLen+1, label, values[i])
	}
	fmt.Println()

	fmt.Printf("Simulated %d cases in %v\n\n", result.Report.CasesArrived, duration)

	if result.Passed {
		fmt.Printf("✅ All KPIs within thresholds\n\n")
		fmt.Println("Values observed:")
		fmt.Printf("  wta:  mean=%.1fh max=%.1fh\n", result.Report.MeanWTA, result.Report.MaxWTA)
		fmt.Printf("  wth:  mean=%.1fh\n", result.Report.MeanWTH)
		fmt.Printf("  nerv: %.2f replans/case\n", result.Report.Nervousness)
		fmt.Printf("  cost: €%.0f\n", result.Report.Cost.Total())
		return
	}

	fmt.Printf("❌ KPI check failed: %d violation(s)\n\n", len(result.Violations))
	for _, v := range result.Violations {
		fmt.Printf("  - %s (value: %.2f > threshold: %.2f)\n", v.KPI, v.Value, v.Threshold)
	}
	fmt.Println()
}

// ExecuteKPIs prints the KPI definitions and active weights. No simulation
// is performed.
func ExecuteKPIs(cfg *contract.Config) error {
	model := KPIDefinitions(cfg.KPIWeights)
	return outwriter.WriteKPIDefinitions(model, cfg)
}

// ExecuteSchedule runs the configured planner and prints the resource
// occupancy chart for the configured window.
func ExecuteSchedule(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	printRunHeader(cfg, cfg.Planner)

	result, resources, err := runOne(ctx, cfg, cfg.Planner, cfg.EventLogFile)
	if err != nil {
		return err
	}
	recordRun(mgr, result)

	fmt.Print(resources.RenderChart(cfg.ChartFrom, cfg.ChartTo))
	return outwriter.WriteRunResult(result, cfg, time.Since(start))
}

// runOne builds the planner and simulator for one run and executes it.
func runOne(ctx context.Context, cfg *contract.Config, kind schema.PlannerKind, eventLog string) (*schema.RunResult, *ResourceScheduleReporter, error) {
	events, err := newEventLogReporter(cfg, eventLog)
	if err != nil {
		return nil, nil, err
	}
	if events != nil {
		defer func() {
			if err := events.Close(); err != nil {
				contract.LogWarn("Could not close event log", err)
			}
		}()
	}
	resources := NewResourceScheduleReporter()

	planner, err := NewPlanner(kind, events, resources)
	if err != nil {
		return nil, nil, err
	}

	startedAt := time.Now()
	simulator := NewSimulator(NewHealthcareProblem(cfg.Seed), planner, cfg.HorizonHours)
	report, outcomes, err := simulator.Run(ctx, cfg.KPIWeights)
	if err != nil {
		return nil, nil, fmt.Errorf("simulation with planner %s failed: %w", kind, err)
	}

	return &schema.RunResult{
		Planner:   kind,
		Seed:      cfg.Seed,
		Horizon:   cfg.HorizonHours,
		Report:    report,
		Outcomes:  outcomes,
		EventLog:  eventLog,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
	}, resources, nil
}

// recordRun persists a run and its case outcomes. Store failures are
// reported as warnings; they never fail the simulation itself.
func recordRun(mgr contract.StoreManager, result *schema.RunResult) {
	if mgr == nil {
		return
	}
	store := mgr.GetRunStore()
	if store == nil {
		return
	}

	configParams := map[string]any{
		"planner": string(result.Planner),
		"seed":    result.Seed,
		"horizon": result.Horizon,
	}
	runID, err := store.BeginRun(string(result.Planner), result.Seed, result.Horizon, result.StartedAt, configParams)
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return
	}
	if runID <= 0 {
		return
	}
	for _, outcome := range result.Outcomes {
		if err := store.RecordCaseOutcome(runID, outcome); err != nil {
			contract.LogWarn("Failed to record case outcome", err)
			break
		}
	}
	if err := store.EndRun(runID, result.StartedAt.Add(result.Duration), result.Report.Score); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}

// evaluateThresholds compares a run's KPIs against the configured gates.
func evaluateThresholds(result *schema.RunResult, thresholds map[schema.KPIKey]float64) *schema.CheckResult {
	values := map[schema.KPIKey]float64{
		schema.KPIWaitingAdmission: result.Report.MeanWTA,
		schema.KPIWaitingHospital:  result.Report.MeanWTH,
		schema.KPINervousness:      result.Report.Nervousness,
		schema.KPICost:             result.Report.Cost.Total(),
	}

	check := &schema.CheckResult{
		Planner:    result.Planner,
		Passed:     true,
		Thresholds: thresholds,
		Report:     result.Report,
	}
	for _, key := range schema.AllKPIKeys {
		threshold, ok := thresholds[key]
		if !ok {
			continue
		}
		if values[key] > threshold {
			check.Passed = false
			check.Violations = append(check.Violations, schema.CheckViolation{
				KPI:       key,
				Value:     values[key],
				Threshold: threshold,
			})
		}
	}
	return check
}

// plannerEventLogPath derives a per-planner event log path for compare runs.
func plannerEventLogPath(base string, kind schema.PlannerKind) string {
	if base == "" {
		return ""
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_" + string(kind) + ext
}

// printRunHeader logs the run parameters before a simulation starts.
func printRunHeader(cfg *contract.Config, kind schema.PlannerKind) {
	fmt.Printf("🏥 bpo: Simulating planner %s\n", kind)
	fmt.Printf("📅 Horizon: %.0f days from %s (seed %d)\n\n",
		cfg.HorizonHours/schema.HoursPerDay, schema.SimEpoch.Format("2006-01-02"), cfg.Seed)
}
