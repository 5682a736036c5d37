package ml

import "context"

const (
	LabelLegitimate = 0
	LabelFraud      = 1
)

// Row is a single input record keyed by column name. Values are strings for
// categorical columns and numbers for numeric ones.
type Row map[string]interface{}

// Classifier is the capability a loaded model exposes. PredictProba returns
// (p_legitimate, p_fraud); both are in [0,1] and sum to 1.
type Classifier interface {
	Predict(ctx context.Context, row Row) (int, error)
	PredictProba(ctx context.Context, row Row) ([2]float64, error)
}

// Metadata describes a loaded artifact.
type Metadata struct {
	Type    string   `json:"model_type"`
	Version string   `json:"version,omitempty"`
	Columns []string `json:"columns"`
}

// Describer is implemented by classifiers that know where they came from.
type Describer interface {
	Metadata() Metadata
}
