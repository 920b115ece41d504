package excel

import (
	"fmt"

	"veritas/domain/evaluation"

	"github.com/xuri/excelize/v2"
)

// WorkbookWriter writes result tables and comparison reports as XLSX
type WorkbookWriter struct {
	config WorkbookConfig
}

// NewWorkbookWriter creates a writer with the given sheet layout
func NewWorkbookWriter(config WorkbookConfig) *WorkbookWriter {
	return &WorkbookWriter{config: config}
}

// Write saves the tables (and their reports, which may be nil) into one workbook
func (w *WorkbookWriter) Write(path string, tables []*evaluation.ResultTable, reports []*evaluation.ComparisonReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", w.config.ResultsSheet); err != nil {
		return fmt.Errorf("failed to name results sheet: %w", err)
	}
	for _, name := range []string{w.config.ComparisonSheet, w.config.FailuresSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	if err := w.writeResults(f, tables); err != nil {
		return err
	}
	if err := w.writeComparisons(f, reports); err != nil {
		return err
	}
	if err := w.writeFailures(f, tables); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func (w *WorkbookWriter) writeResults(f *excelize.File, tables []*evaluation.ResultTable) error {
	rows := [][]interface{}{toCells(evaluation.RowColumns)}
	for _, t := range tables {
		for _, r := range t.Rows {
			rows = append(rows, r.Record())
		}
	}
	return writeRows(f, w.config.ResultsSheet, rows)
}

func (w *WorkbookWriter) writeComparisons(f *excelize.File, reports []*evaluation.ComparisonReport) error {
	rows := [][]interface{}{toCells([]string{
		"family", "test", "statistic", "p_value", "n", "method", "note",
		"configured_rounds", "effective_n", "hybrid_mean_accuracy", "non_hybrid_mean_accuracy",
	})}
	for _, rep := range reports {
		if rep == nil {
			continue
		}
		for _, tr := range []evaluation.TestResult{rep.TwoProportion, rep.Sign, rep.Wilcoxon} {
			rows = append(rows, []interface{}{
				string(rep.Family), tr.Name, tr.Statistic, tr.PValue, tr.N, tr.Method, tr.Note,
				rep.ConfiguredRounds, rep.EffectiveN, rep.HybridAccuracy, rep.NonHybridAccuracy,
			})
		}
	}
	return writeRows(f, w.config.ComparisonSheet, rows)
}

func (w *WorkbookWriter) writeFailures(f *excelize.File, tables []*evaluation.ResultTable) error {
	rows := [][]interface{}{toCells([]string{"family", "round", "variant", "error"})}
	for _, t := range tables {
		for _, fail := range t.Failures {
			rows = append(rows, []interface{}{string(t.Family), fail.Round, string(fail.Variant), fail.Error})
		}
	}
	return writeRows(f, w.config.FailuresSheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
