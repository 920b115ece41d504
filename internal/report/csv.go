package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"veritas/domain/evaluation"
)

// WriteCSV writes one line per row of every table, under evaluation.RowColumns
func WriteCSV(w io.Writer, tables []*evaluation.ResultTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(evaluation.RowColumns); err != nil {
		return err
	}
	for _, t := range tables {
		for _, row := range t.Rows {
			values := row.Record()
			record := make([]string, len(values))
			for i, v := range values {
				record[i] = formatCell(v)
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("failed to write round %d: %w", row.Round, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v interface{}) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	}
	return fmt.Sprint(v)
}
