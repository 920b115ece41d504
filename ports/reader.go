package ports

import "context"

// RawTable is a header plus string rows as read from a CSV or XLSX file
type RawTable struct {
	Source  string
	Headers []string
	Rows    [][]string
}

// TableReader reads a feature table from a file path
type TableReader interface {
	ReadTable(ctx context.Context, path string) (*RawTable, error)
}
