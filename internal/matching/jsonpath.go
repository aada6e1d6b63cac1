package matching

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/ohler55/ojg/jp"
)

var (
	// ErrMismatch reports a well-formed check that did not hold.
	ErrMismatch = errors.New("mismatch")

	// ErrInvalid reports a check that could not be evaluated.
	ErrInvalid = errors.New("invalid check")
)

// JSONPath evaluates path against a JSON body and compares the result with
// expected. When the path selects several values, any equal one passes.
// An expected value of the form {"exists": bool} only tests presence.
func JSONPath(body []byte, path string, expected any) error {
	data, err := decodeJSON(body)
	if err != nil {
		return err
	}

	x, err := jp.ParseString(path)
	if err != nil {
		return fmt.Errorf("%w: jsonpath %q: %v", ErrInvalid, path, err)
	}
	results := x.Get(data)

	if isExistenceCheck(expected) {
		want := getExistsValue(expected)
		if want != (len(results) > 0) {
			return fmt.Errorf("%w: jsonpath %s: exists=%t, want exists=%t",
				ErrMismatch, path, len(results) > 0, want)
		}
		return nil
	}

	if len(results) == 0 {
		return fmt.Errorf("%w: jsonpath %s: no value, want %v", ErrMismatch, path, expected)
	}
	for _, result := range results {
		if valuesEqual(result, expected) {
			return nil
		}
	}
	if len(results) == 1 {
		return fmt.Errorf("%w: jsonpath %s: got %v, want %v", ErrMismatch, path, results[0], expected)
	}
	return fmt.Errorf("%w: jsonpath %s: none of %v equals %v", ErrMismatch, path, results, expected)
}

// Lookup returns the first value selected by path, or false when nothing matched.
func Lookup(body []byte, path string) (any, bool, error) {
	data, err := decodeJSON(body)
	if err != nil {
		return nil, false, err
	}
	x, err := jp.ParseString(path)
	if err != nil {
		return nil, false, fmt.Errorf("%w: jsonpath %q: %v", ErrInvalid, path, err)
	}
	results := x.Get(data)
	if len(results) == 0 {
		return nil, false, nil
	}
	return results[0], true, nil
}

func decodeJSON(body []byte) (any, error) {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: body is not JSON: %v", ErrInvalid, err)
	}
	return data, nil
}

// isExistenceCheck reports whether expected is a map holding only a boolean
// "exists" key.
func isExistenceCheck(expected any) bool {
	m, ok := expected.(map[string]any)
	if !ok || len(m) != 1 {
		return false
	}
	_, ok = m["exists"].(bool)
	return ok
}

func getExistsValue(expected any) bool {
	m, _ := expected.(map[string]any)
	b, _ := m["exists"].(bool)
	return b
}

// valuesEqual compares a decoded JSON value with an expected one. Numbers
// compare by value regardless of Go type, since JSON numbers decode as float64
// and YAML ones as int.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}

	if reflect.DeepEqual(actual, expected) {
		return true
	}

	actualNum, actualIsNum := toFloat64(actual)
	expectedNum, expectedIsNum := toFloat64(expected)
	if actualIsNum && expectedIsNum {
		return actualNum == expectedNum
	}

	switch a := actual.(type) {
	case []any:
		e, ok := expected.([]any)
		if !ok || len(a) != len(e) {
			return false
		}
		for i := range a {
			if !valuesEqual(a[i], e[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		e, ok := expected.(map[string]any)
		if !ok || len(a) != len(e) {
			return false
		}
		for k, v := range a {
			ev, ok := e[k]
			if !ok || !valuesEqual(v, ev) {
				return false
			}
		}
		return true
	}

	return false
}

// toFloat64 attempts to convert a value to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint8:
		return float64(n), true
	default:
		return 0, false
	}
}
