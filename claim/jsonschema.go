package claim

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"claimguard/apperrors"
)

var (
	compiledOnce sync.Once
	compiled     *gojsonschema.Schema
	compileErr   error
)

// JSONSchema describes the accepted input document: every user-editable field,
// none required (missing ones default), no additional properties.
func JSONSchema() map[string]interface{} {
	props := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		if !f.UserEditable() {
			continue
		}
		prop := map[string]interface{}{
			"title":   f.Label,
			"default": f.Default,
		}
		if f.Help != "" {
			prop["description"] = f.Help
		}
		switch f.Kind {
		case KindCategory:
			prop["type"] = "string"
			prop["enum"] = f.Options
		case KindInteger:
			prop["type"] = "integer"
			prop["minimum"] = f.Min
			prop["maximum"] = f.Max
			if f.Step > 1 {
				prop["multipleOf"] = f.Step
			}
		case KindChoice:
			prop["type"] = "integer"
			prop["enum"] = f.Choices
		}
		props[f.Name] = prop
	}
	return map[string]interface{}{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"title":                "ClaimRecord",
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
}

// ValidateJSON checks a raw JSON document against JSONSchema and decodes it
// into a Record.
func ValidateJSON(doc []byte) (Record, error) {
	schema, err := compiledSchema()
	if err != nil {
		return Record{}, err
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return Record{}, apperrors.NewInvalidRecord("(root)", fmt.Sprintf("malformed JSON: %v", err))
	}
	if !result.Valid() {
		first := result.Errors()[0]
		field := first.Field()
		if prop, ok := first.Details()["property"].(string); ok && field == "(root)" {
			field = prop
		}
		return Record{}, apperrors.NewInvalidRecord(field, first.Description())
	}

	var in map[string]interface{}
	if err := json.Unmarshal(doc, &in); err != nil {
		return Record{}, apperrors.NewInvalidRecord("(root)", err.Error())
	}
	return FromMap(in)
}

func compiledSchema() (*gojsonschema.Schema, error) {
	compiledOnce.Do(func() {
		compiled, compileErr = gojsonschema.NewSchema(gojsonschema.NewGoLoader(JSONSchema()))
	})
	return compiled, compileErr
}
