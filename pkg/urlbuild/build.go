// Package urlbuild builds request URLs from RFC 6570 URI templates and
// percent-encoded query parameters.
package urlbuild

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/yosida95/uritemplate/v3"
)

// ErrExpansion is returned when a URI template cannot be parsed or expanded.
var ErrExpansion = errors.New("url expansion failed")

// Build expands template with pathParams and appends queryParams as a query
// string. An empty query leaves the expanded template unchanged.
func Build(template string, pathParams, queryParams map[string]any) (string, error) {
	expanded, err := Expand(template, pathParams)
	if err != nil {
		return "", err
	}

	if query := EncodeQuery(queryParams); query != "" {
		expanded += "?" + query
	}
	return expanded, nil
}

// Expand expands a URI template. Placeholders without a matching parameter
// expand to nothing.
func Expand(template string, params map[string]any) (string, error) {
	tmpl, err := uritemplate.New(template)
	if err != nil {
		return "", fmt.Errorf("%w: parse template %q: %w", ErrExpansion, template, err)
	}

	values := uritemplate.Values{}
	for name, raw := range params {
		if v, ok := templateValue(raw); ok {
			values.Set(name, v)
		}
	}

	out, err := tmpl.Expand(values)
	if err != nil {
		return "", fmt.Errorf("%w: expand template %q: %w", ErrExpansion, template, err)
	}
	return out, nil
}

// EncodeQuery encodes params as a query string. Slices become repeated
// key=value pairs, while nil, maps and structs render as "key=". Keys are
// sorted. Keys and values are escaped with EscapeComponent.
func EncodeQuery(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		raw := params[key]
		values := []string{queryValue(raw)}
		if list, ok := queryList(raw); ok {
			values = list
		}
		for _, v := range values {
			if sb.Len() > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(EscapeComponent(key))
			sb.WriteByte('=')
			sb.WriteString(EscapeComponent(v))
		}
	}
	return sb.String()
}

// EscapeComponent percent-encodes s so that only ASCII letters, digits and
// the marks "-_.!~*'()" are left as-is. A space becomes %20.
func EscapeComponent(s string) string {
	const upperhex = "0123456789ABCDEF"

	n := 0
	for i := 0; i < len(s); i++ {
		if !unescaped(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	out := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unescaped(c) {
			out = append(out, c)
			continue
		}
		out = append(out, '%', upperhex[c>>4], upperhex[c&15])
	}
	return string(out)
}

func unescaped(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

// queryList reports the elements of a slice value. An empty slice yields no
// pairs at all.
func queryList(raw any) ([]string, bool) {
	switch raw.(type) {
	case nil, []byte:
		return nil, false
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out = append(out, queryValue(rv.Index(i).Interface()))
	}
	return out, true
}

// queryValue renders strings, booleans and finite numbers. Anything else is
// the empty string.
func queryValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case bool:
		return strconv.FormatBool(s)
	case float32:
		return formatFloat(float64(s), 32)
	case float64:
		return formatFloat(s, 64)
	case json.Number:
		return s.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.String:
		return rv.String()
	}
	return ""
}

func formatFloat(f float64, bits int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

func templateValue(raw any) (uritemplate.Value, bool) {
	switch v := raw.(type) {
	case nil:
		return uritemplate.Value{}, false
	case string:
		return uritemplate.String(v), true
	case map[string]string:
		return uritemplate.KV(flattenKV(v)...), true
	case map[string]any:
		kv := make(map[string]string, len(v))
		for k, item := range v {
			kv[k] = scalar(item)
		}
		return uritemplate.KV(flattenKV(kv)...), true
	}

	if list, ok := stringList(raw); ok {
		return uritemplate.List(list...), true
	}
	return uritemplate.String(scalar(raw)), true
}

// flattenKV returns key/value pairs in key order so expansion is stable.
func flattenKV(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(m)*2)
	for _, k := range keys {
		out = append(out, k, m[k])
	}
	return out
}

func stringList(raw any) ([]string, bool) {
	switch v := raw.(type) {
	case []string:
		return v, true
	case []byte:
		return nil, false
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out = append(out, scalar(rv.Index(i).Interface()))
	}
	return out, true
}

func scalar(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}
