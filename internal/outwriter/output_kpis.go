package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/LaStefan/bpmn-process-optimization/internal/contract"
	"github.com/LaStefan/bpmn-process-optimization/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteKPIDefinitions outputs the KPI definitions, dispatching based on the
// output format configured.
func WriteKPIDefinitions(model schema.KPIRenderModel, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, model)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVForKPIDefinitions(w, model, fmtFloat)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeKPIDefinitionsTable(w, model, fmtFloat)
		}, "Wrote table")
	}
}

// writeKPIDefinitionsTable writes the KPI definitions in table format.
func writeKPIDefinitionsTable(w io.Writer, model schema.KPIRenderModel, fmtFloat func(float64) string) error {
	if _, err := fmt.Fprintln(w, "Simulation KPIs:"); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Key", "Name", "Purpose", "Formula", "Weight"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	for _, def := range model.Definitions {
		data = append(data, []string{
			string(def.Key),
			def.Name,
			def.Purpose,
			def.Formula,
			fmtFloat(def.Weight),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, model.ScoreNote)
	return err
}

// writeCSVForKPIDefinitions writes the KPI definitions in CSV format.
func writeCSVForKPIDefinitions(w io.Writer, model schema.KPIRenderModel, fmtFloat func(float64) string) error {
	header := []string{"key", "name", "purpose", "formula", "weight"}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for _, def := range model.Definitions {
			rec := []string{
				string(def.Key),
				def.Name,
				def.Purpose,
				def.Formula,
				fmtFloat(def.Weight),
			}
			if err := csvWriter.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
