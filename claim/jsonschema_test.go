package claim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimguard/apperrors"
)

func TestJSONSchemaExcludesConstants(t *testing.T) {
	props := JSONSchema()["properties"].(map[string]interface{})
	assert.Len(t, props, 30)
	assert.NotContains(t, props, "WeekOfMonth")

	deductible := props["Deductible"].(map[string]interface{})
	assert.Equal(t, 100, deductible["multipleOf"])
	assert.Equal(t, 300, deductible["minimum"])
}

func TestValidateJSON(t *testing.T) {
	rec, err := ValidateJSON([]byte(`{"Age": 80, "Sex": "Male", "Deductible": 600}`))
	require.NoError(t, err)

	values := rec.Values()
	assert.Equal(t, 80, values["Age"])
	assert.Equal(t, "Dec", values["Month"])
}

func TestValidateJSONRejects(t *testing.T) {
	cases := map[string]struct {
		doc   string
		field string
	}{
		"enum":          {`{"Sex": "Other"}`, "Sex"},
		"range":         {`{"Age": 81}`, "Age"},
		"step":          {`{"Deductible": 450}`, "Deductible"},
		"type":          {`{"Age": "forty"}`, "Age"},
		"constant":      {`{"WeekOfMonth": 3}`, "WeekOfMonth"},
		"unknown":       {`{"Colour": "red"}`, "Colour"},
		"not-an-object": {`[1,2]`, "(root)"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateJSON([]byte(tc.doc))
			require.Error(t, err)

			var appErr *apperrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.CodeInvalidRecord, appErr.Code)
			assert.Equal(t, tc.field, appErr.Field)
		})
	}
}

func TestValidateJSONMalformed(t *testing.T) {
	_, err := ValidateJSON([]byte(`{"Age": `))
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidRecord))
}
