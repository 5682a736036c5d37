package ml

import (
	"encoding/json"
	"fmt"
	"math"
)

const (
	EncodeOneHot      = "onehot"
	EncodeOrdinal     = "ordinal"
	EncodePassthrough = "passthrough"
	EncodeStandard    = "standard"
)

// EncoderSpec is the per-column preprocessing stored in the artifact.
type EncoderSpec struct {
	Type          string   `json:"type"`
	Categories    []string `json:"categories,omitempty"`
	HandleUnknown string   `json:"handle_unknown,omitempty"`
	Mean          float64  `json:"mean,omitempty"`
	Scale         float64  `json:"scale,omitempty"`
}

// Encoder turns a Row into the named numeric features the estimator was
// fitted on. One-hot columns expand to "Column=Category" features; every other
// encoder yields a single feature named after the column.
type Encoder struct {
	columns []string
	specs   []EncoderSpec
	names   []string
}

func NewEncoder(columns []string, specs map[string]EncoderSpec) (*Encoder, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("artifact declares no columns")
	}
	e := &Encoder{columns: columns, specs: make([]EncoderSpec, len(columns))}
	seen := make(map[string]bool, len(columns))
	for i, col := range columns {
		if seen[col] {
			return nil, fmt.Errorf("duplicate column %q", col)
		}
		seen[col] = true

		spec, ok := specs[col]
		if !ok {
			return nil, fmt.Errorf("no encoder for column %q", col)
		}
		switch spec.Type {
		case EncodeOneHot:
			if len(spec.Categories) == 0 {
				return nil, fmt.Errorf("column %q: onehot encoder without categories", col)
			}
			for _, cat := range spec.Categories {
				e.names = append(e.names, col+"="+cat)
			}
		case EncodeOrdinal:
			if len(spec.Categories) == 0 {
				return nil, fmt.Errorf("column %q: ordinal encoder without categories", col)
			}
			e.names = append(e.names, col)
		case EncodeStandard:
			if spec.Scale == 0 {
				return nil, fmt.Errorf("column %q: standard encoder with zero scale", col)
			}
			e.names = append(e.names, col)
		case EncodePassthrough:
			e.names = append(e.names, col)
		default:
			return nil, fmt.Errorf("column %q: unsupported encoder %q", col, spec.Type)
		}
		e.specs[i] = spec
	}
	return e, nil
}

// FeatureNames lists the encoded features in output order.
func (e *Encoder) FeatureNames() []string {
	return e.names
}

// Transform encodes one row. A missing column or a value of the wrong type is
// an error; extra columns are ignored.
func (e *Encoder) Transform(row Row) (map[string]float64, error) {
	out := make(map[string]float64, len(e.names))
	for i, col := range e.columns {
		raw, ok := row[col]
		if !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
		spec := e.specs[i]
		switch spec.Type {
		case EncodeOneHot:
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("column %q: expected a category, got %T", col, raw)
			}
			known := false
			for _, cat := range spec.Categories {
				hit := 0.0
				if cat == s {
					hit, known = 1, true
				}
				out[col+"="+cat] = hit
			}
			if !known && spec.HandleUnknown == "error" {
				return nil, fmt.Errorf("column %q: unknown category %q", col, s)
			}
		case EncodeOrdinal:
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("column %q: expected a category, got %T", col, raw)
			}
			code := -1.0
			for j, cat := range spec.Categories {
				if cat == s {
					code = float64(j)
					break
				}
			}
			if code < 0 && spec.HandleUnknown != "ignore" {
				return nil, fmt.Errorf("column %q: unknown category %q", col, s)
			}
			out[col] = code
		case EncodePassthrough, EncodeStandard:
			x, err := toFloat(raw)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", col, err)
			}
			if spec.Type == EncodeStandard {
				x = (x - spec.Mean) / spec.Scale
			}
			out[col] = x
		}
	}
	return out, nil
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("non-finite value %v", n)
		}
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}
