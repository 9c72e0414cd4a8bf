package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/LaStefan/bpmn-process-optimization/internal/contract"
	"github.com/LaStefan/bpmn-process-optimization/schema"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteComparison outputs a planner comparison, dispatching based on the
// output format configured.
func WriteComparison(result *schema.ComparisonResult, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVResultsForComparison(w, result, fmtFloat, intFmt)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeComparisonTable(result, cfg, fmtFloat, intFmt, duration, w)
		}, "Wrote table")
	}
}

// rankedRuns returns the comparison runs sorted by composite score ascending.
func rankedRuns(result *schema.ComparisonResult) []schema.RunResult {
	runs := make([]schema.RunResult, len(result.Runs))
	copy(runs, result.Runs)
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Report.Score < runs[j].Report.Score
	})
	return runs
}

// writeComparisonTable writes the planner comparison in table format.
func writeComparisonTable(result *schema.ComparisonResult, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)

	headers := []string{"Rank", "Planner", "Score", "Label", "WTA", "WTH", "Nerv", "Cost"}
	if cfg.Detail {
		headers = append(headers, "Replans", "Dropped", "Admitted")
	}
	table.Header(headers)
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	green := fmt.Sprint
	if cfg.UseColors {
		green = color.New(color.FgGreen, color.Bold).Sprint
	}

	var data [][]string
	for i, run := range rankedRuns(result) {
		name := string(run.Planner)
		if run.Planner == result.Best {
			name = green(name + " ★")
		}
		label := contract.GetPlainLabel(run.Report.Score)
		if cfg.UseColors {
			label = contract.GetColorLabel(run.Report.Score)
		}
		row := []string{
			strconv.Itoa(i + 1),
			name,
			fmtFloat(run.Report.Score),
			label,
			fmtFloat(run.Report.MeanWTA),
			fmtFloat(run.Report.MeanWTH),
			fmtFloat(run.Report.Nervousness),
			formatEuro(run.Report.Cost.Total()),
		}
		if cfg.Detail {
			row = append(row,
				fmt.Sprintf(intFmt, run.Report.TotalReplans),
				fmt.Sprintf(intFmt, run.Report.Violations),
				fmt.Sprintf(intFmt, run.Report.CasesAdmitted),
			)
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(writer, "Best planner: %s (seed %d, %.0f day horizon)\n",
		result.Best, result.Seed, result.Horizon/schema.HoursPerDay); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Comparison completed in %v with %d workers. Store backend: %s\n",
		duration, cfg.Workers, cfg.StoreBackend); err != nil {
		return err
	}
	return nil
}

// writeCSVResultsForComparison writes the planner comparison in CSV format.
func writeCSVResultsForComparison(w io.Writer, result *schema.ComparisonResult, fmtFloat func(float64) string, intFmt string) error {
	header := []string{
		"rank",
		"planner",
		"score",
		"label",
		"mean_wta_hours",
		"mean_wth_hours",
		"nervousness",
		"cost_total",
		"cost_regular",
		"cost_short_term",
		"cost_overtime",
		"total_replans",
		"dropped_decisions",
		"cases_arrived",
		"cases_admitted",
		"cases_released",
		"best",
	}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for i, run := range rankedRuns(result) {
			rec := []string{
				strconv.Itoa(i + 1),
				string(run.Planner),
				fmtFloat(run.Report.Score),
				contract.GetPlainLabel(run.Report.Score),
				fmtFloat(run.Report.MeanWTA),
				fmtFloat(run.Report.MeanWTH),
				fmtFloat(run.Report.Nervousness),
				fmtFloat(run.Report.Cost.Total()),
				fmtFloat(run.Report.Cost.Regular),
				fmtFloat(run.Report.Cost.ShortTerm),
				fmtFloat(run.Report.Cost.Overtime),
				fmt.Sprintf(intFmt, run.Report.TotalReplans),
				fmt.Sprintf(intFmt, run.Report.Violations),
				fmt.Sprintf(intFmt, run.Report.CasesArrived),
				fmt.Sprintf(intFmt, run.Report.CasesAdmitted),
				fmt.Sprintf(intFmt, run.Report.CasesReleased),
				strconv.FormatBool(run.Planner == result.Best),
			}
			if err := csvWriter.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
