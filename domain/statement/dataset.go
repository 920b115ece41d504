package statement

import (
	"fmt"
	"strconv"

	"veritas/domain/core"

	"gonum.org/v1/gonum/mat"
)

// Dataset is an ordered statement table with a fixed feature layout
type Dataset struct {
	FeatureNames []string
	Statements   []Statement
}

// NewDataset validates the statements against the feature layout
func NewDataset(featureNames []string, statements []Statement) (*Dataset, error) {
	ds := &Dataset{FeatureNames: featureNames, Statements: statements}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// Validate checks the per-statement invariants
func (d *Dataset) Validate() error {
	seen := make(map[string]struct{}, len(d.FeatureNames))
	for _, name := range d.FeatureNames {
		if name == HumanPredictionColumn {
			return core.NewConfigurationError("feature "+name, "is reserved for the human prediction")
		}
		if _, dup := seen[name]; dup {
			return core.NewConfigurationError("feature "+name, "appears twice")
		}
		seen[name] = struct{}{}
	}

	width := len(d.FeatureNames)
	for i, s := range d.Statements {
		if !s.Label.Valid() {
			return core.NewConfigurationError("statement "+s.ID.String(), fmt.Sprintf("has invalid label %q", s.Label))
		}
		if len(s.Features) != width {
			return core.NewConfigurationError("statement "+s.ID.String(),
				fmt.Sprintf("at row %d has %d features, want %d", i, len(s.Features), width))
		}
		if s.Prompt < 0 || s.Prompt > 6 {
			return core.NewConfigurationError("statement "+s.ID.String(), "prompt must be within 1..6")
		}
		if s.HumanPrediction != nil && !s.HumanPrediction.Valid() {
			return core.NewConfigurationError("statement "+s.ID.String(), "has invalid human prediction")
		}
	}
	return nil
}

// Len returns the number of statements
func (d *Dataset) Len() int {
	return len(d.Statements)
}

// Width returns the number of textual feature columns
func (d *Dataset) Width() int {
	return len(d.FeatureNames)
}

// HybridSubset returns the statements that carry a human prediction
func (d *Dataset) HybridSubset() *Dataset {
	subset := make([]Statement, 0, len(d.Statements))
	for _, s := range d.Statements {
		if s.Hybrid() {
			subset = append(subset, s)
		}
	}
	return &Dataset{FeatureNames: d.FeatureNames, Statements: subset}
}

// FullyHybrid reports whether every statement carries a human prediction
func (d *Dataset) FullyHybrid() bool {
	for _, s := range d.Statements {
		if !s.Hybrid() {
			return false
		}
	}
	return true
}

// Labels returns the ground truth of the selected rows
func (d *Dataset) Labels(rows []int) []Label {
	labels := make([]Label, len(rows))
	for i, r := range rows {
		labels[i] = d.Statements[r].Label
	}
	return labels
}

// ClassTotals counts truths and lies in the selected rows
func (d *Dataset) ClassTotals(rows []int) (truths, lies int) {
	for _, r := range rows {
		if d.Statements[r].Label == Truth {
			truths++
		} else {
			lies++
		}
	}
	return truths, lies
}

// Columns lists the matrix column names for a hybrid or non-hybrid variant
func (d *Dataset) Columns(includeHuman bool) []string {
	cols := make([]string, 0, len(d.FeatureNames)+1)
	cols = append(cols, d.FeatureNames...)
	if includeHuman {
		cols = append(cols, HumanPredictionColumn)
	}
	return cols
}

// Matrix extracts the selected rows as a dense feature matrix. With includeHuman
// the human prediction is appended as the last column, encoded 1 for truth.
func (d *Dataset) Matrix(rows []int, includeHuman bool) (*mat.Dense, error) {
	cols := len(d.FeatureNames)
	if includeHuman {
		cols++
	}
	if cols == 0 {
		return nil, core.NewTrainingFailure("feature matrix has zero columns")
	}
	if len(rows) == 0 {
		return nil, core.NewInsufficientDataError("no rows selected")
	}

	data := make([]float64, 0, len(rows)*cols)
	for _, r := range rows {
		s := d.Statements[r]
		data = append(data, s.Features...)
		if includeHuman {
			if s.HumanPrediction == nil {
				return nil, core.NewConfigurationError("statement "+s.ID.String(), "has no human prediction for hybrid matrix")
			}
			data = append(data, s.HumanPrediction.Indicator())
		}
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// Column returns one feature column across all statements
func (d *Dataset) Column(j int) []float64 {
	col := make([]float64, len(d.Statements))
	for i, s := range d.Statements {
		col[i] = s.Features[j]
	}
	return col
}

// Describe is a short summary used in log lines
func (d *Dataset) Describe() string {
	truths, lies := 0, 0
	hybrid := 0
	for _, s := range d.Statements {
		if s.Label == Truth {
			truths++
		} else {
			lies++
		}
		if s.Hybrid() {
			hybrid++
		}
	}
	return "statements=" + strconv.Itoa(len(d.Statements)) +
		" truths=" + strconv.Itoa(truths) +
		" lies=" + strconv.Itoa(lies) +
		" hybrid=" + strconv.Itoa(hybrid) +
		" features=" + strconv.Itoa(len(d.FeatureNames))
}
