package claim

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"claimguard/apperrors"
)

// Record is one fully populated claim. Values are stored in column order:
// string for categories, int for integers and choices, float64 for constants.
// A Record is never mutated; With returns a modified copy.
type Record struct {
	values []interface{}
}

// Defaults returns the record every form starts from.
func Defaults() Record {
	values := make([]interface{}, len(fields))
	for i, f := range fields {
		values[i] = f.Default
	}
	return Record{values: values}
}

// Complete reports whether the record was built through this package.
func (r Record) Complete() bool {
	return len(r.values) == len(fields)
}

// Values returns a fresh column-name keyed copy of the record, the single row
// handed to the classifier.
func (r Record) Values() map[string]interface{} {
	out := make(map[string]interface{}, len(r.values))
	for i, v := range r.values {
		out[fields[i].Name] = v
	}
	return out
}

// FormValues renders every user-editable value as the string a form control
// would submit.
func (r Record) FormValues() map[string]string {
	out := make(map[string]string, len(r.values))
	for i, v := range r.values {
		if !fields[i].UserEditable() {
			continue
		}
		out[fields[i].Name] = fmt.Sprint(v)
	}
	return out
}

// MarshalJSON encodes the record as a JSON object keyed by column name.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Values())
}

// With returns a copy of r with one user-editable column replaced.
func (r Record) With(name string, value interface{}) (Record, error) {
	if !r.Complete() {
		r = Defaults()
	}
	f, ok := Lookup(name)
	if !ok {
		return Record{}, apperrors.NewInvalidRecord(name, "unknown field")
	}
	if !f.UserEditable() {
		return Record{}, apperrors.NewInvalidRecord(name, "field is fixed and cannot be set")
	}
	v, err := f.coerce(value)
	if err != nil {
		return Record{}, apperrors.NewInvalidRecord(name, err.Error())
	}
	if err := f.check(v); err != nil {
		return Record{}, apperrors.NewInvalidRecord(name, err.Error())
	}
	values := make([]interface{}, len(r.values))
	copy(values, r.values)
	values[index[name]] = v
	return Record{values: values}, nil
}

// FromMap builds a record from decoded JSON or YAML values. Missing fields take
// their defaults; unknown or fixed fields are rejected.
func FromMap(in map[string]interface{}) (Record, error) {
	rec := Defaults()
	for _, name := range sortedKeys(in) {
		var err error
		rec, err = rec.With(name, in[name])
		if err != nil {
			return Record{}, err
		}
	}
	return rec, nil
}

// Parse builds a record from submitted form values. Missing fields take their
// defaults.
func Parse(form url.Values) (Record, error) {
	in := make(map[string]interface{}, len(form))
	for name := range form {
		in[name] = strings.TrimSpace(form.Get(name))
	}
	return FromMap(in)
}

func (f Field) coerce(value interface{}) (interface{}, error) {
	switch f.Kind {
	case KindCategory:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", value)
		}
		return s, nil
	case KindInteger, KindChoice:
		return toInt(value)
	}
	return nil, fmt.Errorf("field is not settable")
}

func (f Field) check(value interface{}) error {
	switch f.Kind {
	case KindCategory:
		s, _ := value.(string)
		for _, opt := range f.Options {
			if opt == s {
				return nil
			}
		}
		return fmt.Errorf("%q is not one of %s", s, strings.Join(f.Options, ", "))
	case KindInteger:
		n, _ := value.(int)
		if n < f.Min || n > f.Max {
			return fmt.Errorf("%d is outside [%d, %d]", n, f.Min, f.Max)
		}
		if f.Step > 1 && (n-f.Min)%f.Step != 0 {
			return fmt.Errorf("%d is not a multiple of %d from %d", n, f.Step, f.Min)
		}
		return nil
	case KindChoice:
		n, _ := value.(int)
		for _, c := range f.Choices {
			if c == n {
				return nil
			}
		}
		return fmt.Errorf("%d is not an allowed value", n)
	case KindConstant:
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("constant must be a float")
		}
		return nil
	}
	return fmt.Errorf("unknown kind %v", f.Kind)
}

func toInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", v.String())
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("expected an integer, got %T", value)
}

func sortedKeys(in map[string]interface{}) []string {
	// Walk in schema order so the first reported error is stable.
	keys := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, f := range fields {
		if _, ok := in[f.Name]; ok {
			keys = append(keys, f.Name)
			seen[f.Name] = true
		}
	}
	var unknown []string
	for k := range in {
		if !seen[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return append(keys, unknown...)
}
