package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"claimguard/apperrors"
)

const (
	ModelDecisionTree       = "decision_tree"
	ModelRandomForest       = "random_forest"
	ModelLogisticRegression = "logistic_regression"
)

// Artifact is the on-disk form of a fitted pipeline: column encoders followed
// by one estimator.
type Artifact struct {
	ModelType string                 `json:"model_type"`
	Version   string                 `json:"version,omitempty"`
	Columns   []string               `json:"columns"`
	Encoders  map[string]EncoderSpec `json:"encoders"`
	Tree      *TreeSpec              `json:"tree,omitempty"`
	Forest    *ForestSpec            `json:"forest,omitempty"`
	Logistic  *LogisticSpec          `json:"logistic,omitempty"`
}

type estimator interface {
	proba(features map[string]float64) ([2]float64, error)
}

// Model is a loaded artifact. It is immutable and safe for concurrent use.
type Model struct {
	meta      Metadata
	encoder   *Encoder
	estimator estimator
}

// LoadModel reads and decodes the artifact at path. A missing file yields an
// ARTIFACT_MISSING error; anything else that prevents a usable model yields
// ARTIFACT_LOAD_FAILURE.
func LoadModel(path string) (*Model, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewArtifactMissing(path, err)
		}
		return nil, apperrors.NewArtifactLoadFailure(path, err)
	}
	var artifact Artifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, apperrors.NewArtifactLoadFailure(path, err)
	}
	model, err := NewModel(artifact)
	if err != nil {
		return nil, apperrors.NewArtifactLoadFailure(path, err)
	}
	return model, nil
}

// NewModel builds a Model from a decoded artifact.
func NewModel(a Artifact) (*Model, error) {
	encoder, err := NewEncoder(a.Columns, a.Encoders)
	if err != nil {
		return nil, err
	}
	features := encoder.FeatureNames()

	var est estimator
	switch a.ModelType {
	case ModelDecisionTree:
		if a.Tree == nil {
			return nil, errors.New("decision_tree artifact without tree")
		}
		est, err = NewDecisionTree(*a.Tree, features)
	case ModelRandomForest:
		if a.Forest == nil {
			return nil, errors.New("random_forest artifact without forest")
		}
		est, err = NewRandomForest(*a.Forest, features)
	case ModelLogisticRegression:
		if a.Logistic == nil {
			return nil, errors.New("logistic_regression artifact without logistic")
		}
		est, err = NewLogisticRegression(*a.Logistic, features)
	default:
		return nil, fmt.Errorf("unsupported model type %q", a.ModelType)
	}
	if err != nil {
		return nil, err
	}

	return &Model{
		meta:      Metadata{Type: a.ModelType, Version: a.Version, Columns: a.Columns},
		encoder:   encoder,
		estimator: est,
	}, nil
}

func (m *Model) Metadata() Metadata {
	return m.meta
}

// PredictProba returns (p_legitimate, p_fraud) for one row.
func (m *Model) PredictProba(ctx context.Context, row Row) ([2]float64, error) {
	if err := ctx.Err(); err != nil {
		return [2]float64{}, err
	}
	features, err := m.encoder.Transform(row)
	if err != nil {
		return [2]float64{}, err
	}
	return m.estimator.proba(features)
}

// Predict returns the most probable label; ties go to legitimate.
func (m *Model) Predict(ctx context.Context, row Row) (int, error) {
	p, err := m.PredictProba(ctx, row)
	if err != nil {
		return 0, err
	}
	if p[LabelFraud] > p[LabelLegitimate] {
		return LabelFraud, nil
	}
	return LabelLegitimate, nil
}
