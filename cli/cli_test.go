package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimguard/apperrors"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "claimguard dev\n", out)
}

func TestSchemaTable(t *testing.T) {
	out, err := run(t, "schema", "--table")
	require.NoError(t, err)
	assert.Contains(t, out, "Deductible")
	assert.Contains(t, out, "300..700 step 100")
	assert.Contains(t, out, "WeekOfMonthClaimed")
	assert.Contains(t, out, "fixed")
}

func TestSchemaJSON(t *testing.T) {
	out, err := run(t, "schema", "--table=false")
	require.NoError(t, err)

	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Equal(t, "object", schema["type"])
}

func TestScore(t *testing.T) {
	out, err := run(t, "score", "--model", "testdata/claims_model.json", "--input", "testdata/young_claim.yaml", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "FRAUD DETECTED")
	assert.Contains(t, out, "Fraud Probability: 80.0%")
	assert.Contains(t, out, "Legitimate Probability: 20.0%")
}

func TestScoreJSON(t *testing.T) {
	out, err := run(t, "score", "--model", "testdata/claims_model.json", "--input", "testdata/young_claim.yaml", "--json")
	require.NoError(t, err)

	var res struct {
		Label int  `json:"label"`
		Fraud bool `json:"fraud"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Fraud)
	assert.Equal(t, 1, res.Label)
}

func TestScoreErrors(t *testing.T) {
	_, err := run(t, "score", "--model", "testdata/claims_model.json", "--input", "testdata/bad_claim.json", "--json=false")
	assert.Equal(t, apperrors.CodeInvalidRecord, apperrors.CodeOf(err))

	_, err = run(t, "score", "--model", "testdata/missing.json", "--input", "testdata/young_claim.yaml", "--json=false")
	assert.Equal(t, apperrors.CodeArtifactMissing, apperrors.CodeOf(err))
}
