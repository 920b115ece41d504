package experiment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"veritas/adapters/excel"
	"veritas/internal/report"
)

// Output file names inside the output directory
const (
	ResultsCSV   = "results.csv"
	ResultsXLSX  = "results.xlsx"
	ReportMD     = "report.md"
	ReportHTML   = "report.html"
	PipelineJSON = "pipeline.json"
)

// Writer persists an outcome as files
type Writer struct {
	dir      string
	workbook *excel.WorkbookWriter
}

// NewWriter creates a writer for dir
func NewWriter(dir string, workbook *excel.WorkbookWriter) *Writer {
	if workbook == nil {
		workbook = excel.NewWorkbookWriter(excel.DefaultWorkbookConfig())
	}
	return &Writer{dir: dir, workbook: workbook}
}

// Write creates the output directory and every output file, returning the paths
func (w *Writer) Write(header report.Header, out *Outcome) ([]string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	save := func(name string, data []byte) error {
		path := filepath.Join(w.dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, out.Tables()); err != nil {
		return written, err
	}
	if err := save(ResultsCSV, buf.Bytes()); err != nil {
		return written, err
	}

	xlsx := filepath.Join(w.dir, ResultsXLSX)
	if err := w.workbook.Write(xlsx, out.Tables(), out.Comparisons()); err != nil {
		return written, err
	}
	written = append(written, xlsx)

	if header.Title == "" {
		header.Title = "Evaluation report"
	}
	if header.Fingerprint.IsEmpty() {
		header.Fingerprint = out.Fingerprint
	}
	md := report.Markdown(header, out.Entries())
	if err := save(ReportMD, []byte(md)); err != nil {
		return written, err
	}
	if err := save(ReportHTML, report.HTML(header.Title, md)); err != nil {
		return written, err
	}

	if out.Pipeline != nil {
		data, err := json.MarshalIndent(out.Pipeline, "", "  ")
		if err != nil {
			return written, err
		}
		if err := save(PipelineJSON, data); err != nil {
			return written, err
		}
	}
	return written, nil
}
