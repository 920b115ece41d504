package dataset

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"veritas/domain/core"
	"veritas/domain/statement"
	"veritas/internal"
	"veritas/ports"
)

// Column names recognized in the input tables
const (
	ColumnID           = "id"
	ColumnLabel        = "label"
	ColumnRespondentID = "respondent_id"
	ColumnPrompt       = "prompt"
	ColumnText         = "text"
	ColumnPrediction   = "prediction"
)

// LoadRequest names the files of one corpus
type LoadRequest struct {
	Statements string   `json:"statements"`
	Features   []string `json:"features"`
	Human      string   `json:"human,omitempty"`
}

// LoadStats summarizes the joins
type LoadStats struct {
	Statements        int `json:"statements"`
	MissingFeatures   int `json:"missing_features"`
	HumanPredictions  int `json:"human_predictions"`
	UnmatchedHuman    int `json:"unmatched_human"`
	FeatureColumns    int `json:"feature_columns"`
	FeatureTables     int `json:"feature_tables"`
	StatementsDropped int `json:"statements_dropped"`
}

// Loader reads the corpus tables and joins them by statement id
type Loader struct {
	reader ports.TableReader
	logger *internal.Logger
}

// NewLoader creates a corpus loader over a table reader
func NewLoader(reader ports.TableReader, logger *internal.Logger) *Loader {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Loader{reader: reader, logger: logger}
}

// Load reads every table of the request and joins them
func (l *Loader) Load(ctx context.Context, req LoadRequest) (*statement.Dataset, LoadStats, error) {
	if req.Statements == "" {
		return nil, LoadStats{}, core.NewConfigurationError("statements table", "is required")
	}
	if len(req.Features) == 0 {
		return nil, LoadStats{}, core.NewConfigurationError("feature tables", "at least one is required")
	}

	stmts, err := l.reader.ReadTable(ctx, req.Statements)
	if err != nil {
		return nil, LoadStats{}, err
	}
	features := make([]ports.RawTable, 0, len(req.Features))
	for _, path := range req.Features {
		t, err := l.reader.ReadTable(ctx, path)
		if err != nil {
			return nil, LoadStats{}, err
		}
		features = append(features, *t)
	}
	var human *ports.RawTable
	if req.Human != "" {
		if human, err = l.reader.ReadTable(ctx, req.Human); err != nil {
			return nil, LoadStats{}, err
		}
	}

	ds, stats, err := Join(*stmts, features, human)
	if err != nil {
		return nil, stats, err
	}
	l.logger.Info("loaded corpus: %s (%d dropped for missing features, %d unmatched human predictions)",
		ds.Describe(), stats.MissingFeatures, stats.UnmatchedHuman)
	return ds, stats, nil
}

// Join inner-joins the feature tables onto the statements and left-joins
// the human predictions. Statement order follows the statements table.
func Join(stmts ports.RawTable, features []ports.RawTable, human *ports.RawTable) (*statement.Dataset, LoadStats, error) {
	var stats LoadStats
	base, err := parseStatements(stmts)
	if err != nil {
		return nil, stats, err
	}

	var names []string
	seenNames := map[string]string{}
	values := make([]map[string][]float64, len(features))
	for k, t := range features {
		idCol, err := column(t, ColumnID, true)
		if err != nil {
			return nil, stats, err
		}
		var cols []int
		for j, h := range t.Headers {
			if j == idCol {
				continue
			}
			if h == "" {
				return nil, stats, core.NewConfigurationError(t.Source, fmt.Sprintf("column %d has no header", j+1))
			}
			if prev, dup := seenNames[h]; dup {
				return nil, stats, core.NewConfigurationError("feature "+h, fmt.Sprintf("appears in both %s and %s", prev, t.Source))
			}
			seenNames[h] = t.Source
			names = append(names, h)
			cols = append(cols, j)
		}

		values[k] = make(map[string][]float64, len(t.Rows))
		for i, row := range t.Rows {
			id := row[idCol]
			if _, dup := values[k][id]; dup {
				return nil, stats, core.NewConfigurationError(t.Source, fmt.Sprintf("duplicate id %q", id))
			}
			vec := make([]float64, len(cols))
			for c, j := range cols {
				v, err := strconv.ParseFloat(row[j], 64)
				if err != nil {
					return nil, stats, core.NewConfigurationError(t.Source, fmt.Sprintf("row %d column %s: %q is not numeric", i+2, t.Headers[j], row[j]))
				}
				vec[c] = v
			}
			values[k][id] = vec
		}
	}

	predictions := map[string]statement.Label{}
	if human != nil {
		idCol, err := column(*human, ColumnID, true)
		if err != nil {
			return nil, stats, err
		}
		predCol, err := column(*human, ColumnPrediction, false)
		if err != nil {
			return nil, stats, err
		}
		if predCol < 0 {
			if predCol, err = column(*human, statement.HumanPredictionColumn, true); err != nil {
				return nil, stats, err
			}
		}
		for i, row := range human.Rows {
			if strings.TrimSpace(row[predCol]) == "" {
				continue
			}
			label, err := statement.ParseLabel(row[predCol])
			if err != nil {
				return nil, stats, core.NewConfigurationError(human.Source, fmt.Sprintf("row %d: %v", i+2, err))
			}
			if _, dup := predictions[row[idCol]]; dup {
				return nil, stats, core.NewConfigurationError(human.Source, fmt.Sprintf("duplicate id %q", row[idCol]))
			}
			predictions[row[idCol]] = label
		}
	}

	out := make([]statement.Statement, 0, len(base))
	matchedHuman := 0
	for _, s := range base {
		id := s.ID.String()
		var vec []float64
		complete := true
		for k := range features {
			part, ok := values[k][id]
			if !ok {
				complete = false
				break
			}
			vec = append(vec, part...)
		}
		if !complete {
			stats.MissingFeatures++
			continue
		}
		s.Features = vec
		if label, ok := predictions[id]; ok {
			label := label
			s.HumanPrediction = &label
			matchedHuman++
		}
		out = append(out, s)
	}

	stats.Statements = len(out)
	stats.StatementsDropped = len(base) - len(out)
	stats.HumanPredictions = matchedHuman
	stats.UnmatchedHuman = len(predictions) - matchedHuman
	stats.FeatureColumns = len(names)
	stats.FeatureTables = len(features)
	if len(out) == 0 {
		return nil, stats, core.NewInsufficientDataError("no statement has a row in every feature table")
	}

	ds, err := statement.NewDataset(names, out)
	return ds, stats, err
}

func parseStatements(t ports.RawTable) ([]statement.Statement, error) {
	idCol, err := column(t, ColumnID, true)
	if err != nil {
		return nil, err
	}
	labelCol, err := column(t, ColumnLabel, true)
	if err != nil {
		return nil, err
	}
	respCol, _ := column(t, ColumnRespondentID, false)
	promptCol, _ := column(t, ColumnPrompt, false)
	textCol, _ := column(t, ColumnText, false)

	seen := make(map[string]struct{}, len(t.Rows))
	out := make([]statement.Statement, 0, len(t.Rows))
	for i, row := range t.Rows {
		id := row[idCol]
		if id == "" {
			return nil, core.NewConfigurationError(t.Source, fmt.Sprintf("row %d has an empty id", i+2))
		}
		if _, dup := seen[id]; dup {
			return nil, core.NewConfigurationError(t.Source, fmt.Sprintf("duplicate id %q", id))
		}
		seen[id] = struct{}{}

		label, err := statement.ParseLabel(row[labelCol])
		if err != nil {
			return nil, core.NewConfigurationError(t.Source, fmt.Sprintf("row %d: %v", i+2, err))
		}
		s := statement.Statement{ID: core.StatementID(id), Label: label}
		if respCol >= 0 {
			s.RespondentID = row[respCol]
		}
		if textCol >= 0 {
			s.Text = row[textCol]
		}
		if promptCol >= 0 && row[promptCol] != "" {
			p, err := strconv.Atoi(row[promptCol])
			if err != nil {
				return nil, core.NewConfigurationError(t.Source, fmt.Sprintf("row %d prompt %q is not an integer", i+2, row[promptCol]))
			}
			s.Prompt = p
		}
		out = append(out, s)
	}
	return out, nil
}

// column finds a header case-insensitively; -1 when absent and not required
func column(t ports.RawTable, name string, required bool) (int, error) {
	for j, h := range t.Headers {
		if strings.EqualFold(h, name) {
			return j, nil
		}
	}
	if required {
		return -1, core.NewConfigurationError(t.Source, fmt.Sprintf("has no %q column", name))
	}
	return -1, nil
}
