// Package scoring turns a claim record into a fraud verdict by calling the
// loaded classifier.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"claimguard/apperrors"
	"claimguard/claim"
	"claimguard/ml"
	"claimguard/monitoring"
)

const probabilityTolerance = 1e-6

// Result is the verdict for one record. Probabilities are percentages.
type Result struct {
	Label                 int     `json:"label"`
	Fraud                 bool    `json:"fraud"`
	FraudProbability      float64 `json:"fraud_probability"`
	LegitimateProbability float64 `json:"legitimate_probability"`
}

// Verdict is the headline shown for the result.
func (r Result) Verdict() string {
	if r.Fraud {
		return "FRAUD DETECTED"
	}
	return "LEGITIMATE CLAIM"
}

// CapabilitySource hands out the classifier once it is ready.
type CapabilitySource interface {
	Capability() (ml.Classifier, error)
}

// Adapter scores records against a capability source.
type Adapter struct {
	source  CapabilitySource
	logger  *zap.Logger
	channel string
}

// NewAdapter creates an adapter. A nil logger discards output.
func NewAdapter(source CapabilitySource, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{source: source, logger: logger.Named("scoring"), channel: "form"}
}

// For returns a copy of the adapter that labels its metrics with channel.
func (a *Adapter) For(channel string) *Adapter {
	c := *a
	c.channel = channel
	return &c
}

// Submit runs one predict and one predict_proba on the same row. It either
// returns a complete Result or an error, never both.
func (a *Adapter) Submit(ctx context.Context, rec claim.Record) (Result, error) {
	start := time.Now()

	if !rec.Complete() {
		return Result{}, apperrors.NewInvalidRecord("record", "record is empty")
	}

	classifier, err := a.source.Capability()
	if err != nil {
		monitoring.ObservePrediction(a.channel, monitoring.OutcomeUnavailable, time.Since(start), 0)
		return Result{}, err
	}

	row := ml.Row(rec.Values())
	res, err := a.score(ctx, classifier, row)
	if err != nil {
		monitoring.ObservePrediction(a.channel, monitoring.OutcomeError, time.Since(start), 0)
		a.logger.Warn("prediction failed", zap.String("channel", a.channel), zap.Error(err))
		return Result{}, err
	}

	outcome := monitoring.OutcomeLegitimate
	if res.Fraud {
		outcome = monitoring.OutcomeFraud
	}
	monitoring.ObservePrediction(a.channel, outcome, time.Since(start), res.FraudProbability/100)
	a.logger.Debug("prediction",
		zap.String("channel", a.channel),
		zap.Int("label", res.Label),
		zap.Float64("fraud_probability", res.FraudProbability))
	return res, nil
}

func (a *Adapter) score(ctx context.Context, classifier ml.Classifier, row ml.Row) (Result, error) {
	label, err := classifier.Predict(ctx, row)
	if err != nil {
		return Result{}, inferenceFailure(err)
	}
	proba, err := classifier.PredictProba(ctx, row)
	if err != nil {
		return Result{}, inferenceFailure(err)
	}

	if label != ml.LabelLegitimate && label != ml.LabelFraud {
		return Result{}, apperrors.NewInferenceFailure(fmt.Errorf("classifier returned label %d", label))
	}
	if err := checkProbabilities(proba); err != nil {
		return Result{}, apperrors.NewInferenceFailure(err)
	}

	if (proba[ml.LabelFraud] > 0.5 && label != ml.LabelFraud) ||
		(proba[ml.LabelLegitimate] > 0.5 && label != ml.LabelLegitimate) {
		a.logger.Warn("label disagrees with probabilities",
			zap.Int("label", label),
			zap.Float64("p_legitimate", proba[ml.LabelLegitimate]),
			zap.Float64("p_fraud", proba[ml.LabelFraud]))
	}

	return Result{
		Label:                 label,
		Fraud:                 label == ml.LabelFraud,
		FraudProbability:      proba[ml.LabelFraud] * 100,
		LegitimateProbability: proba[ml.LabelLegitimate] * 100,
	}, nil
}

func checkProbabilities(p [2]float64) error {
	for i, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("probability for class %d is not finite", i)
		}
		if v < 0 || v > 1 {
			return fmt.Errorf("probability for class %d is %v, outside [0, 1]", i, v)
		}
	}
	if math.Abs(p[0]+p[1]-1) > probabilityTolerance {
		return fmt.Errorf("probabilities sum to %v", p[0]+p[1])
	}
	return nil
}

func inferenceFailure(err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && appErr.Code == apperrors.CodeInferenceFailure {
		return err
	}
	return apperrors.NewInferenceFailure(err)
}
