package excel

// WorkbookConfig names the sheets of the results workbook
type WorkbookConfig struct {
	ResultsSheet    string `json:"results_sheet"`
	ComparisonSheet string `json:"comparison_sheet"`
	FailuresSheet   string `json:"failures_sheet"`
}

// DefaultWorkbookConfig returns the sheet names used by the reports
func DefaultWorkbookConfig() WorkbookConfig {
	return WorkbookConfig{
		ResultsSheet:    "results",
		ComparisonSheet: "comparison",
		FailuresSheet:   "failures",
	}
}
