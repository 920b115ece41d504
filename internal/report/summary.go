// Package report renders result tables and comparison reports for people:
// per-variant summaries, Markdown with an HTML rendering, and CSV.
package report

import (
	"math"

	"veritas/domain/evaluation"

	"github.com/montanaflynn/stats"
)

// Stat is the spread of one metric across rounds
type Stat struct {
	Mean float64 `json:"mean"`
	SD   float64 `json:"sd"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// VariantSummary aggregates the rows of one variant
type VariantSummary struct {
	Variant     evaluation.Variant `json:"variant"`
	Rounds      int                `json:"rounds"`
	Accuracy    Stat               `json:"accuracy"`
	Sensitivity Stat               `json:"sensitivity"`
	Specificity Stat               `json:"specificity"`
	Precision   Stat               `json:"precision"`
	NPV         Stat               `json:"npv"`
}

// Summarize returns the hybrid summary followed by the non-hybrid one.
// A variant without rows is omitted.
func Summarize(table *evaluation.ResultTable) []VariantSummary {
	var out []VariantSummary
	for _, v := range []evaluation.Variant{evaluation.Hybrid, evaluation.NonHybrid} {
		rows := table.RowsFor(v)
		if len(rows) == 0 {
			continue
		}
		out = append(out, VariantSummary{
			Variant:     v,
			Rounds:      len(rows),
			Accuracy:    describe(rows, func(r evaluation.ResultRow) float64 { return r.Accuracy }),
			Sensitivity: describe(rows, func(r evaluation.ResultRow) float64 { return r.Sensitivity }),
			Specificity: describe(rows, func(r evaluation.ResultRow) float64 { return r.Specificity }),
			Precision:   describe(rows, func(r evaluation.ResultRow) float64 { return r.Precision }),
			NPV:         describe(rows, func(r evaluation.ResultRow) float64 { return r.NPV }),
		})
	}
	return out
}

func describe(rows []evaluation.ResultRow, metric func(evaluation.ResultRow) float64) Stat {
	data := make(stats.Float64Data, len(rows))
	for i, r := range rows {
		data[i] = metric(r)
	}

	var s Stat
	s.Mean, _ = stats.Mean(data)
	s.Min, _ = stats.Min(data)
	s.Max, _ = stats.Max(data)
	// one round has no spread
	if len(data) > 1 {
		if sd, err := stats.StandardDeviationSample(data); err == nil && !math.IsNaN(sd) {
			s.SD = sd
		}
	}
	return s
}
