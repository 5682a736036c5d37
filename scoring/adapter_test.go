package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"claimguard/apperrors"
	"claimguard/claim"
	"claimguard/ml"
)

type fakeClassifier struct {
	label      int
	proba      [2]float64
	err        error
	probaErr   error
	predicts   int
	probas     int
	predictRow ml.Row
	probaRow   ml.Row
}

func (f *fakeClassifier) Predict(ctx context.Context, row ml.Row) (int, error) {
	f.predicts++
	f.predictRow = row
	return f.label, f.err
}

func (f *fakeClassifier) PredictProba(ctx context.Context, row ml.Row) ([2]float64, error) {
	f.probas++
	f.probaRow = row
	return f.proba, f.probaErr
}

type fakeSource struct {
	classifier ml.Classifier
	err        error
}

func (s fakeSource) Capability() (ml.Classifier, error) {
	return s.classifier, s.err
}

func newAdapter(t *testing.T, c ml.Classifier) *Adapter {
	return NewAdapter(fakeSource{classifier: c}, zaptest.NewLogger(t))
}

func TestSubmitFraud(t *testing.T) {
	fc := &fakeClassifier{label: 1, proba: [2]float64{0.2, 0.8}}
	res, err := newAdapter(t, fc).Submit(context.Background(), claim.Defaults())
	require.NoError(t, err)

	assert.True(t, res.Fraud)
	assert.Equal(t, 1, res.Label)
	assert.InDelta(t, 80.0, res.FraudProbability, 1e-9)
	assert.InDelta(t, 20.0, res.LegitimateProbability, 1e-9)
	assert.Equal(t, "FRAUD DETECTED", res.Verdict())
	assert.Equal(t, 1, fc.predicts)
	assert.Equal(t, 1, fc.probas)
}

func TestSubmitLegitimate(t *testing.T) {
	fc := &fakeClassifier{label: 0, proba: [2]float64{0.95, 0.05}}
	res, err := newAdapter(t, fc).Submit(context.Background(), claim.Defaults())
	require.NoError(t, err)

	assert.False(t, res.Fraud)
	assert.InDelta(t, 5.0, res.FraudProbability, 1e-9)
	assert.InDelta(t, 95.0, res.LegitimateProbability, 1e-9)
	assert.Equal(t, "LEGITIMATE CLAIM", res.Verdict())
}

func TestSubmitPassesOneFullRow(t *testing.T) {
	fc := &fakeClassifier{label: 0, proba: [2]float64{0.6, 0.4}}
	rec, err := claim.Defaults().With("Age", 0)
	require.NoError(t, err)

	_, err = newAdapter(t, fc).Submit(context.Background(), rec)
	require.NoError(t, err)

	require.Len(t, fc.predictRow, len(claim.Columns()))
	assert.Equal(t, fc.predictRow, fc.probaRow)
	assert.Equal(t, 0, fc.predictRow["Age"])
	for _, name := range claim.Columns() {
		assert.Contains(t, fc.predictRow, name)
	}
}

func TestSubmitPercentagesSumToHundred(t *testing.T) {
	for _, p := range []float64{0, 0.001, 0.2, 0.5, 0.73, 0.999, 1} {
		t.Run(fmt.Sprint(p), func(t *testing.T) {
			label := ml.LabelLegitimate
			if p > 0.5 {
				label = ml.LabelFraud
			}
			fc := &fakeClassifier{label: label, proba: [2]float64{1 - p, p}}
			res, err := newAdapter(t, fc).Submit(context.Background(), claim.Defaults())
			require.NoError(t, err)
			assert.InDelta(t, 100.0, res.FraudProbability+res.LegitimateProbability, 1e-6)
			assert.Equal(t, res.Label == 1, res.Fraud)
		})
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	fc := &fakeClassifier{label: 1, proba: [2]float64{0.3, 0.7}}
	a := newAdapter(t, fc)
	rec, err := claim.Defaults().With("Deductible", 700)
	require.NoError(t, err)

	first, err := a.Submit(context.Background(), rec)
	require.NoError(t, err)
	second, err := a.Submit(context.Background(), rec)
	require.NoError(t, err)

	b1, _ := json.Marshal(first)
	b2, _ := json.Marshal(second)
	assert.Equal(t, string(b1), string(b2))
}

func TestSubmitUnavailable(t *testing.T) {
	fc := &fakeClassifier{}
	unavailable := apperrors.NewArtifactMissing("insurance_fraud_model.json", errors.New("no such file"))
	a := NewAdapter(fakeSource{classifier: fc, err: unavailable}, nil)

	res, err := a.Submit(context.Background(), claim.Defaults())
	assert.Equal(t, Result{}, res)
	assert.True(t, apperrors.IsUnavailable(err))
	assert.Equal(t, 0, fc.predicts)
	assert.Equal(t, 0, fc.probas)
}

func TestSubmitClassifierFailure(t *testing.T) {
	cases := map[string]*fakeClassifier{
		"predict":  {err: errors.New("missing column ClaimAmount")},
		"proba":    {label: 1, probaErr: errors.New("shape mismatch")},
		"label":    {label: 2, proba: [2]float64{0.5, 0.5}},
		"nan":      {label: 0, proba: [2]float64{math.NaN(), 0.5}},
		"range":    {label: 1, proba: [2]float64{-0.2, 1.2}},
		"sum":      {label: 1, proba: [2]float64{0.3, 0.3}},
		"infinite": {label: 1, proba: [2]float64{0, math.Inf(1)}},
	}
	for name, fc := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := newAdapter(t, fc).Submit(context.Background(), claim.Defaults())
			require.Error(t, err)
			assert.Equal(t, Result{}, res)
			assert.Equal(t, apperrors.CodeInferenceFailure, apperrors.CodeOf(err))
			assert.NotEmpty(t, err.Error())
		})
	}
}

func TestSubmitLabelWinsOverProbabilities(t *testing.T) {
	fc := &fakeClassifier{label: 0, proba: [2]float64{0.4, 0.6}}
	res, err := newAdapter(t, fc).Submit(context.Background(), claim.Defaults())
	require.NoError(t, err)
	assert.False(t, res.Fraud)
	assert.InDelta(t, 60.0, res.FraudProbability, 1e-9)
}

func TestSubmitRejectsEmptyRecord(t *testing.T) {
	fc := &fakeClassifier{label: 1, proba: [2]float64{0.2, 0.8}}
	_, err := newAdapter(t, fc).Submit(context.Background(), claim.Record{})
	assert.Equal(t, apperrors.CodeInvalidRecord, apperrors.CodeOf(err))
	assert.Equal(t, 0, fc.predicts)
}

func TestSubmitWithLoadedModel(t *testing.T) {
	p := ml.NewProvider("testdata/claims_model.json", nil, zaptest.NewLogger(t))
	require.NoError(t, p.Load(context.Background()))
	a := NewAdapter(p, zaptest.NewLogger(t)).For("api")

	res, err := a.Submit(context.Background(), claim.Defaults())
	require.NoError(t, err)
	assert.False(t, res.Fraud)
	assert.InDelta(t, 10.0, res.FraudProbability, 1e-9)

	young, err := claim.Defaults().With("Age", 20)
	require.NoError(t, err)
	res, err = a.Submit(context.Background(), young)
	require.NoError(t, err)
	assert.True(t, res.Fraud)
	assert.InDelta(t, 80.0, res.FraudProbability, 1e-9)
}

func TestSubmitModelNeedsUnknownColumn(t *testing.T) {
	p := ml.NewProvider("testdata/extra_column_model.json", nil, nil)
	require.NoError(t, p.Load(context.Background()))

	res, err := NewAdapter(p, nil).Submit(context.Background(), claim.Defaults())
	assert.Equal(t, Result{}, res)
	assert.Equal(t, apperrors.CodeInferenceFailure, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "ClaimAmount")
}
