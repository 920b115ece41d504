package evaluation

import (
	"sort"

	"veritas/domain/model"
)

// WaldZ is the two-sided 95% normal quantile used for all intervals
const WaldZ = 1.96

// Split partitions statement indices for one round
type Split struct {
	Train []int `json:"train"`
	Test  []int `json:"test"`
	Seed  int64 `json:"seed"`
}

// Confusion is the 2x2 outcome with truth as the positive class
type Confusion struct {
	TP int `json:"true_positives"`
	TN int `json:"true_negatives"`
	FP int `json:"false_positives"`
	FN int `json:"false_negatives"`
}

// Total returns the number of scored statements
func (c Confusion) Total() int {
	return c.TP + c.TN + c.FP + c.FN
}

// Correct returns the number of correctly classified statements
func (c Confusion) Correct() int {
	return c.TP + c.TN
}

// Estimate is a proportion with its trial count and 95% Wald bounds
type Estimate struct {
	Value float64 `json:"value"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	N     int     `json:"n"`
}

// Metrics are the confusion-derived rates of one scored prediction set
type Metrics struct {
	Confusion   Confusion `json:"confusion"`
	Accuracy    Estimate  `json:"accuracy"`
	Sensitivity Estimate  `json:"sensitivity"`
	Specificity Estimate  `json:"specificity"`
	Precision   Estimate  `json:"precision"`
	NPV         Estimate  `json:"npv"`
}

// Variant distinguishes models trained with and without the human prediction
type Variant string

const (
	Hybrid    Variant = "hybrid"
	NonHybrid Variant = "non_hybrid"
)

// IsHybrid reports whether the variant includes the human prediction
func (v Variant) IsHybrid() bool {
	return v == Hybrid
}

// ResultRow records one variant's metrics for one round
type ResultRow struct {
	Family        model.Kind   `json:"family" db:"family"`
	Hybrid        bool         `json:"hybrid" db:"hybrid"`
	Round         int          `json:"round" db:"round"`
	Accuracy      float64      `json:"accuracy" db:"accuracy"`
	AccuracyLower float64      `json:"accuracy_lower" db:"accuracy_lower"`
	AccuracyUpper float64      `json:"accuracy_upper" db:"accuracy_upper"`
	Sensitivity   float64      `json:"sensitivity" db:"sensitivity"`
	Specificity   float64      `json:"specificity" db:"specificity"`
	Precision     float64      `json:"precision" db:"precision"`
	NPV           float64      `json:"npv" db:"npv"`
	N             int          `json:"n" db:"n"`
	Truths        int          `json:"truths" db:"truths"`
	Lies          int          `json:"lies" db:"lies"`
	Confusion     Confusion    `json:"confusion" db:"-"`
	Params        model.Params `json:"params" db:"-"`
}

// RowColumns are the column names of a serialized ResultRow
var RowColumns = []string{
	"family", "hybrid", "round", "accuracy", "accuracy_lower", "accuracy_upper",
	"sensitivity", "specificity", "precision", "npv", "n", "truths", "lies",
	"tp", "tn", "fp", "fn", "params",
}

// Record returns the row's values in RowColumns order
func (r ResultRow) Record() []interface{} {
	return []interface{}{
		string(r.Family), r.Hybrid, r.Round, r.Accuracy, r.AccuracyLower, r.AccuracyUpper,
		r.Sensitivity, r.Specificity, r.Precision, r.NPV, r.N, r.Truths, r.Lies,
		r.Confusion.TP, r.Confusion.TN, r.Confusion.FP, r.Confusion.FN, r.Params.String(),
	}
}

// Variant returns the row's variant
func (r ResultRow) Variant() Variant {
	if r.Hybrid {
		return Hybrid
	}
	return NonHybrid
}

// NewResultRow flattens a scored round into a row
func NewResultRow(family model.Kind, variant Variant, round int, m Metrics, truths, lies int, params model.Params) ResultRow {
	return ResultRow{
		Family:        family,
		Hybrid:        variant.IsHybrid(),
		Round:         round,
		Accuracy:      m.Accuracy.Value,
		AccuracyLower: m.Accuracy.Lower,
		AccuracyUpper: m.Accuracy.Upper,
		Sensitivity:   m.Sensitivity.Value,
		Specificity:   m.Specificity.Value,
		Precision:     m.Precision.Value,
		NPV:           m.NPV.Value,
		N:             m.Confusion.Total(),
		Truths:        truths,
		Lies:          lies,
		Confusion:     m.Confusion,
		Params:        params,
	}
}

// RoundFailure records why a round produced no rows
type RoundFailure struct {
	Round   int     `json:"round"`
	Variant Variant `json:"variant,omitempty"`
	Error   string  `json:"error"`
}

// ResultTable accumulates rows across the rounds of one experiment
type ResultTable struct {
	Family   model.Kind     `json:"family"`
	Rounds   int            `json:"rounds"`
	Rows     []ResultRow    `json:"rows"`
	Failures []RoundFailure `json:"failures,omitempty"`
}

// Pair is the hybrid and non-hybrid row of one round
type Pair struct {
	Round     int
	Hybrid    ResultRow
	NonHybrid ResultRow
}

// Pairs returns the rounds that have both variants, ordered by round
func (t *ResultTable) Pairs() []Pair {
	byRound := make(map[int]*Pair)
	seen := make(map[int][2]bool)
	for _, row := range t.Rows {
		p, ok := byRound[row.Round]
		if !ok {
			p = &Pair{Round: row.Round}
			byRound[row.Round] = p
		}
		flags := seen[row.Round]
		if row.Hybrid {
			p.Hybrid = row
			flags[0] = true
		} else {
			p.NonHybrid = row
			flags[1] = true
		}
		seen[row.Round] = flags
	}

	pairs := make([]Pair, 0, len(byRound))
	for round, p := range byRound {
		if flags := seen[round]; flags[0] && flags[1] {
			pairs = append(pairs, *p)
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Round < pairs[j].Round })
	return pairs
}

// RowsFor filters the table by variant
func (t *ResultTable) RowsFor(v Variant) []ResultRow {
	var out []ResultRow
	for _, row := range t.Rows {
		if row.Variant() == v {
			out = append(out, row)
		}
	}
	return out
}

// TestResult is one significance test's output
type TestResult struct {
	Name      string  `json:"name"`
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	N         int     `json:"n"`
	Method    string  `json:"method"`
	Note      string  `json:"note,omitempty"`
}

// ComparisonReport holds hybrid vs non-hybrid tests over the paired rounds
type ComparisonReport struct {
	Family            model.Kind `json:"family"`
	ConfiguredRounds  int        `json:"configured_rounds"`
	EffectiveN        int        `json:"effective_n"`
	HybridAccuracy    float64    `json:"hybrid_mean_accuracy"`
	NonHybridAccuracy float64    `json:"non_hybrid_mean_accuracy"`
	HybridWins        int        `json:"hybrid_wins"`
	Ties              int        `json:"ties"`
	TwoProportion     TestResult `json:"two_proportion"`
	Sign              TestResult `json:"sign"`
	Wilcoxon          TestResult `json:"wilcoxon"`
}
