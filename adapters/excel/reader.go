package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"veritas/domain/core"
	"veritas/internal"
	"veritas/ports"

	"github.com/xuri/excelize/v2"
)

// TableReader reads CSV and XLSX tables into header plus string rows
type TableReader struct {
	logger *internal.Logger
}

// NewTableReader creates a reader; a nil logger discards output
func NewTableReader(logger *internal.Logger) *TableReader {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &TableReader{logger: logger}
}

var _ ports.TableReader = (*TableReader)(nil)

// ReadTable dispatches on the file extension. XLSX files are read from their first sheet.
func (r *TableReader) ReadTable(ctx context.Context, path string) (*ports.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, core.NewNotFoundError("table", path)
	}

	start := time.Now()
	var rows [][]string
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx":
		rows, err = readXLSX(path)
	default:
		return nil, core.NewConfigurationError("table "+path, fmt.Sprintf("has unsupported extension %q", ext))
	}
	if err != nil {
		return nil, err
	}

	table, err := toTable(path, rows)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("[TableReader] %s read in %.2fms (%d columns, %d rows)",
		path, float64(time.Since(start).Nanoseconds())/1e6, len(table.Headers), len(table.Rows))
	return table, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.NewInsufficientDataError("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheets[0], err)
	}
	return rows, nil
}

// toTable trims cells, pads short rows to the header width and drops blank rows
func toTable(source string, rows [][]string) (*ports.RawTable, error) {
	if len(rows) < 2 {
		return nil, core.NewInsufficientDataError(source + " must have a header row and at least one data row")
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	table := &ports.RawTable{Source: source, Headers: headers}
	for _, row := range rows[1:] {
		cells := make([]string, len(headers))
		blank := true
		for j := range cells {
			if j < len(row) {
				cells[j] = strings.TrimSpace(row[j])
			}
			if cells[j] != "" {
				blank = false
			}
		}
		if !blank {
			table.Rows = append(table.Rows, cells)
		}
	}
	if len(table.Rows) == 0 {
		return nil, core.NewInsufficientDataError(source + " has no data rows")
	}
	return table, nil
}
