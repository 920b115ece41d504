package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"

	"veritas/domain/core"
	"veritas/domain/statement"
	"veritas/ports"
)

// CorpusConfig configures the synthetic statement corpus
type CorpusConfig struct {
	Statements    int     `json:"statements"`
	Respondents   int     `json:"respondents"`
	Signal        float64 `json:"signal"`         // separation of truth and lie feature means, in sd units
	HumanAccuracy float64 `json:"human_accuracy"` // probability the human prediction matches the label
	HybridShare   float64 `json:"hybrid_share"`   // fraction of statements carrying a human prediction
	NoiseFeatures int     `json:"noise_features"`
	Seed          int64   `json:"seed"`
}

// DefaultCorpusConfig mirrors the shape of the crowd-sourced corpus at a smaller size
func DefaultCorpusConfig() CorpusConfig {
	return CorpusConfig{
		Statements:    300,
		Respondents:   50,
		Signal:        1.0,
		HumanAccuracy: 0.6,
		HybridShare:   0.75,
		NoiseFeatures: 2,
		Seed:          42,
	}
}

// CorpusFeatureNames lists the generated columns in order
func CorpusFeatureNames(cfg CorpusConfig) []string {
	names := []string{"word_count", "word_count_scaled", "first_person_rate", "sentiment", "readability", "rare_marker"}
	for k := 0; k < cfg.NoiseFeatures; k++ {
		names = append(names, "noise_"+strconv.Itoa(k+1))
	}
	return names
}

// CorpusGenerator draws labelled statements with textual-style features
type CorpusGenerator struct {
	config CorpusConfig
	rng    *rand.Rand
}

// NewCorpusGenerator creates a generator seeded from the config
func NewCorpusGenerator(config CorpusConfig) *CorpusGenerator {
	return &CorpusGenerator{config: config, rng: rand.New(rand.NewSource(config.Seed))}
}

// Generate returns the corpus; labels alternate truth and lie so both classes
// are equally represented
func (g *CorpusGenerator) Generate() (*statement.Dataset, error) {
	cfg := g.config
	if cfg.Statements < 2 {
		return nil, core.NewConfigurationError("statements", "must be at least 2")
	}
	respondents := cfg.Respondents
	if respondents < 1 {
		respondents = 1
	}

	statements := make([]statement.Statement, cfg.Statements)
	for i := range statements {
		label := statement.Truth
		shift := cfg.Signal / 2
		if i%2 == 1 {
			label = statement.Lie
			shift = -shift
		}

		words := math.Exp(4 + 0.5*(g.rng.NormFloat64()+shift))
		features := []float64{
			math.Round(words),
			math.Round(words)*1.01 + 0.1*g.rng.NormFloat64(),
			math.Max(0.001, 0.07+0.02*(g.rng.NormFloat64()+shift)),
			g.rng.NormFloat64() + shift,
			60 + 10*g.rng.NormFloat64() - 5*shift,
			g.rareMarker(),
		}
		for k := 0; k < cfg.NoiseFeatures; k++ {
			features = append(features, g.rng.NormFloat64())
		}

		s := statement.Statement{
			ID:           core.StatementID(fmt.Sprintf("stmt_%05d", i+1)),
			RespondentID: fmt.Sprintf("resp_%04d", i%respondents+1),
			Prompt:       i%6 + 1,
			Label:        label,
			Text:         fmt.Sprintf("synthetic %s statement %d", label, i+1),
			Features:     features,
		}
		if g.rng.Float64() < cfg.HybridShare {
			human := label
			if g.rng.Float64() >= cfg.HumanAccuracy {
				human = label.Other()
			}
			s.HumanPrediction = &human
		}
		statements[i] = s
	}
	return statement.NewDataset(CorpusFeatureNames(cfg), statements)
}

func (g *CorpusGenerator) rareMarker() float64 {
	if g.rng.Float64() < 0.02 {
		return 1
	}
	return 0
}

// CorpusTables renders a dataset as the statements, features and human
// prediction tables the loader reads
func CorpusTables(ds *statement.Dataset) (statements, features, human ports.RawTable) {
	statements = ports.RawTable{Source: "statements", Headers: []string{"id", "respondent_id", "prompt", "label", "text"}}
	features = ports.RawTable{Source: "features", Headers: append([]string{"id"}, ds.FeatureNames...)}
	human = ports.RawTable{Source: "human", Headers: []string{"id", "prediction"}}

	for _, s := range ds.Statements {
		id := s.ID.String()
		statements.Rows = append(statements.Rows, []string{id, s.RespondentID, strconv.Itoa(s.Prompt), string(s.Label), s.Text})

		row := []string{id}
		for _, v := range s.Features {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		features.Rows = append(features.Rows, row)

		if s.HumanPrediction != nil {
			human.Rows = append(human.Rows, []string{id, string(*s.HumanPrediction)})
		}
	}
	return statements, features, human
}

// LinearDataset builds a fully hybrid dataset of n statements whose single
// feature separates the classes by signal
func LinearDataset(n int, signal float64, seed int64) (*statement.Dataset, error) {
	cfg := DefaultCorpusConfig()
	cfg.Statements = n
	cfg.Signal = signal
	cfg.HybridShare = 1
	cfg.Seed = seed
	full, err := NewCorpusGenerator(cfg).Generate()
	if err != nil {
		return nil, err
	}
	for i := range full.Statements {
		full.Statements[i].Features = full.Statements[i].Features[3:4]
	}
	return statement.NewDataset([]string{"sentiment"}, full.Statements)
}
