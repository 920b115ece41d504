package statement

import (
	"fmt"
	"strings"

	"veritas/domain/core"
)

// Label is the ground truth (or a prediction) for a statement
type Label string

const (
	Truth Label = "truth"
	Lie   Label = "lie"
)

// HumanPredictionColumn is the feature name used when the human-rater
// prediction is appended to a feature matrix.
const HumanPredictionColumn = "human_prediction"

// ParseLabel accepts truth/lie, true/false and 1/0 in any case
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "truth", "true", "t", "1":
		return Truth, nil
	case "lie", "false", "f", "0":
		return Lie, nil
	}
	return "", core.NewConfigurationError("label", fmt.Sprintf("%q is not truth or lie", s))
}

// Valid reports whether l is one of the two known labels
func (l Label) Valid() bool {
	return l == Truth || l == Lie
}

// Other returns the opposite label
func (l Label) Other() Label {
	if l == Truth {
		return Lie
	}
	return Truth
}

// Indicator encodes truth as 1 and lie as 0
func (l Label) Indicator() float64 {
	if l == Truth {
		return 1
	}
	return 0
}

// FromIndicator maps a fitted probability or score back to a label
func FromIndicator(v float64) Label {
	if v >= 0.5 {
		return Truth
	}
	return Lie
}

func (l Label) String() string { return string(l) }

// Statement is one crowd-sourced response with its extracted features
type Statement struct {
	ID              core.StatementID `json:"id"`
	RespondentID    string           `json:"respondent_id,omitempty"`
	Prompt          int              `json:"prompt,omitempty"`
	Label           Label            `json:"label"`
	Text            string           `json:"text,omitempty"`
	Features        []float64        `json:"features"`
	HumanPrediction *Label           `json:"human_prediction,omitempty"`
}

// Hybrid reports whether the statement belongs to the human-annotated subset
func (s Statement) Hybrid() bool {
	return s.HumanPrediction != nil
}
