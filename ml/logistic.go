package ml

import (
	"fmt"
	"math"
)

type LogisticSpec struct {
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
}

// LogisticRegression scores p_fraud = sigmoid(intercept + sum(coef * x)).
// Terms are summed in encoded feature order so the same input always yields
// the same bits. Features without a coefficient contribute nothing.
type LogisticRegression struct {
	intercept float64
	terms     []logisticTerm
}

type logisticTerm struct {
	feature string
	weight  float64
}

func NewLogisticRegression(spec LogisticSpec, features []string) (*LogisticRegression, error) {
	known := make(map[string]bool, len(features))
	for _, f := range features {
		known[f] = true
	}
	for name, w := range spec.Coefficients {
		if !known[name] {
			return nil, fmt.Errorf("coefficient for unknown feature %q", name)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("coefficient for %q is not finite", name)
		}
	}

	lr := &LogisticRegression{intercept: spec.Intercept}
	for _, f := range features {
		if w, ok := spec.Coefficients[f]; ok {
			lr.terms = append(lr.terms, logisticTerm{feature: f, weight: w})
		}
	}
	return lr, nil
}

func (lr *LogisticRegression) proba(features map[string]float64) ([2]float64, error) {
	z := lr.intercept
	for _, t := range lr.terms {
		z += t.weight * features[t.feature]
	}
	p := 1 / (1 + math.Exp(-z))
	return [2]float64{1 - p, p}, nil
}
