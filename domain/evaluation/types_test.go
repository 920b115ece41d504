package evaluation

import (
	"testing"

	"veritas/domain/model"

	"github.com/stretchr/testify/assert"
)

func TestResultTable_PairsSkipsIncompleteRounds(t *testing.T) {
	table := &ResultTable{
		Family: model.KindLogistic,
		Rounds: 3,
		Rows: []ResultRow{
			{Round: 2, Hybrid: true, Accuracy: 0.7},
			{Round: 2, Hybrid: false, Accuracy: 0.6},
			{Round: 1, Hybrid: true, Accuracy: 0.8},
			{Round: 3, Hybrid: true, Accuracy: 0.5},
			{Round: 1, Hybrid: false, Accuracy: 0.65},
		},
	}

	pairs := table.Pairs()
	assert.Len(t, pairs, 2)
	assert.Equal(t, 1, pairs[0].Round)
	assert.Equal(t, 0.8, pairs[0].Hybrid.Accuracy)
	assert.Equal(t, 0.65, pairs[0].NonHybrid.Accuracy)
	assert.Equal(t, 2, pairs[1].Round)

	assert.Len(t, table.RowsFor(Hybrid), 3)
	assert.Len(t, table.RowsFor(NonHybrid), 2)
}

func TestNewResultRow(t *testing.T) {
	m := Metrics{
		Confusion: Confusion{TP: 40, FN: 10, TN: 30, FP: 20},
		Accuracy:  Estimate{Value: 0.7, Lower: 0.61, Upper: 0.79, N: 100},
	}
	row := NewResultRow(model.KindSVMRadial, NonHybrid, 4, m, 50, 50, model.Params{Cost: 1})

	assert.False(t, row.Hybrid)
	assert.Equal(t, NonHybrid, row.Variant())
	assert.Equal(t, 100, row.N)
	assert.Equal(t, 0.61, row.AccuracyLower)
	assert.Equal(t, 70, row.Confusion.Correct())
}

func TestResultRow_RecordMatchesColumns(t *testing.T) {
	row := ResultRow{
		Family: model.KindSVMRadial, Hybrid: true, Round: 3, Accuracy: 0.7, N: 50,
		Confusion: Confusion{TP: 20, TN: 15, FP: 10, FN: 5},
		Params:    model.Params{Cost: 1, Sigma: 0.5},
	}

	record := row.Record()
	assert.Len(t, record, len(RowColumns))
	assert.Equal(t, "svm_radial", record[0])
	assert.Equal(t, 20, record[13])
	assert.Equal(t, "sigma=0.5 cost=1", record[len(record)-1])
}
