package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/LaStefan/bpmn-process-optimization/internal/contract"
	"github.com/LaStefan/bpmn-process-optimization/internal/parquet"
	"github.com/LaStefan/bpmn-process-optimization/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// kpiRow pairs a KPI key with its display metadata for the summary table.
type kpiRow struct {
	key   schema.KPIKey
	name  string
	value string
	unit  string
}

// WriteRunResult outputs a single simulation run, dispatching based on the
// output format configured.
func WriteRunResult(result *schema.RunResult, cfg *contract.Config, duration time.Duration) error {
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
			return writeCSVResultsForRun(w, result, fmtFloat, intFmt)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeParquetResultsForRun(result, cfg)
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunTable(result, cfg, fmtFloat, intFmt, duration, w)
		}, "Wrote table")
	}
}

// writeRunTable generates and writes the human-readable KPI report.
func writeRunTable(result *schema.RunResult, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration, writer io.Writer) error {
	report := result.Report

	table := tablewriter.NewWriter(writer)
	table.Header([]string{"KPI", "Value", "Unit", "Weight"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	rows := []kpiRow{
		{schema.KPIWaitingAdmission, "Waiting for admission (mean)", fmtFloat(report.MeanWTA), "hours"},
		{schema.KPIWaitingAdmission, "Waiting for admission (max)", fmtFloat(report.MaxWTA), "hours"},
		{schema.KPIWaitingHospital, "Waiting in hospital (mean)", fmtFloat(report.MeanWTH), "hours"},
		{schema.KPINervousness, "Nervousness", fmtFloat(report.Nervousness), "replans/case"},
		{schema.KPICost, "Personnel cost", formatEuro(report.Cost.Total()), "euro"},
	}
	var data [][]string
	for _, r := range rows {
		weight := ""
		if w, ok := cfg.KPIWeights[r.key]; ok {
			weight = fmtFloat(w)
		}
		data = append(data, []string{r.name, r.value, r.unit, weight})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	label := contract.GetPlainLabel(report.Score)
	if cfg.UseColors {
		label = contract.GetColorLabel(report.Score)
	}
	if _, err := fmt.Fprintf(writer, "Composite score: %s (%s, lower is better)\n", fmtFloat(report.Score), label); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer,
		"Cases: "+intFmt+" arrived, "+intFmt+" admitted, "+intFmt+" released. Replans: "+intFmt+". Dropped planner decisions: "+intFmt+"\n",
		report.CasesArrived, report.CasesAdmitted, report.CasesReleased, report.TotalReplans, report.Violations); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer,
		"Cost split: %s regular, %s short-term, %s overtime\n",
		formatEuro(report.Cost.Regular), formatEuro(report.Cost.ShortTerm), formatEuro(report.Cost.Overtime)); err != nil {
		return err
	}

	if cfg.Detail {
		if err := writeWTHBreakdownTable(report, cfg, fmtFloat, writer); err != nil {
			return err
		}
		if err := writeSlowestCasesTable(result, cfg, fmtFloat, intFmt, writer); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(writer, "Simulation completed in %v with %d workers. Store backend: %s\n",
		duration, cfg.Workers, cfg.StoreBackend); err != nil {
		return err
	}
	return nil
}

// writeWTHBreakdownTable prints the per-diagnosis in-hospital waiting means.
func writeWTHBreakdownTable(report schema.KPIReport, cfg *contract.Config, fmtFloat func(float64) string, writer io.Writer) error {
	if len(report.WTHBuckets) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(writer, "\nIn-hospital waiting by diagnosis (mean hours):"); err != nil {
		return err
	}

	table := tablewriter.NewWriter(writer)
	table.Header([]string{"Diagnosis", "Mean WTH"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, diag := range append(schema.AllDiagnoses, schema.DiagER) {
		mean, ok := report.WTHBuckets[diag]
		if !ok {
			continue
		}
		data = append(data, []string{string(diag), fmtFloat(mean)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeSlowestCasesTable prints the cases with the longest admission waits.
func writeSlowestCasesTable(result *schema.RunResult, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, writer io.Writer) error {
	if len(result.Outcomes) == 0 {
		return nil
	}

	outcomes := make([]schema.CaseOutcome, len(result.Outcomes))
	copy(outcomes, result.Outcomes)
	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].WaitingAdm > outcomes[j].WaitingAdm
	})
	limit := min(len(outcomes), cfg.ResultLimit)

	if _, err := fmt.Fprintf(writer, "\nTop %d cases by admission wait:\n", limit); err != nil {
		return err
	}

	table := tablewriter.NewWriter(writer)
	headers := []string{"Rank", "Case", "Diagnosis", "WTA", "Replans"}
	wide := wideTablesAllowed(cfg)
	if wide {
		headers = append(headers, "Arrival", "Admission", "Release", "WTH")
	}
	table.Header(headers)
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for i := range limit {
		o := outcomes[i]
		row := []string{
			strconv.Itoa(i + 1),
			fmt.Sprintf(intFmt, o.CaseID),
			string(o.Diagnosis),
			fmtFloat(o.WaitingAdm),
			fmt.Sprintf(intFmt, o.Replans),
		}
		if wide {
			row = append(row,
				fmtFloat(o.ArrivalTime),
				formatSimHours(o.AdmissionTime, fmtFloat),
				formatSimHours(o.ReleaseTime, fmtFloat),
				fmtFloat(o.WaitingHosp),
			)
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeCSVResultsForRun writes case outcomes in CSV format.
func writeCSVResultsForRun(w io.Writer, result *schema.RunResult, fmtFloat func(float64) string, intFmt string) error {
	header := []string{
		"case_id",
		"diagnosis",
		"emergency",
		"arrival_hours",
		"admission_hours",
		"release_hours",
		"waiting_admission_hours",
		"waiting_hospital_hours",
		"replans",
		"planner",
	}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for _, o := range result.Outcomes {
			rec := []string{
				fmt.Sprintf(intFmt, o.CaseID),
				string(o.Diagnosis),
				strconv.FormatBool(o.Emergency),
				fmtFloat(o.ArrivalTime),
				formatSimHours(o.AdmissionTime, fmtFloat),
				formatSimHours(o.ReleaseTime, fmtFloat),
				fmtFloat(o.WaitingAdm),
				fmtFloat(o.WaitingHosp),
				fmt.Sprintf(intFmt, o.Replans),
				string(result.Planner),
			}
			if err := csvWriter.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeParquetResultsForRun writes case outcomes to a Parquet file.
// Parquet output is file-only, so --output-file is required.
func writeParquetResultsForRun(result *schema.RunResult, cfg *contract.Config) error {
	if cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for parquet output")
	}
	records := parquet.ConvertRunOutcomes(result)
	if err := parquet.WriteCaseOutcomesParquet(records, cfg.OutputFile); err != nil {
		return fmt.Errorf("error writing parquet output: %w", err)
	}
	fmt.Printf("💾 Wrote %d case outcomes to %s\n", len(records), cfg.OutputFile)
	return nil
}
