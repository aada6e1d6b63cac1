// Package header folds raw request header pairs into a lookup table.
//
// Repeated names are merged under one of three policies: single-write names
// keep their first value, set-cookie accumulates every value in order, and
// all other names are joined with ", ". Every supplied pair is also kept in a
// raw list in input order, including single-write repeats that the lookup
// table dropped.
package header

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/textproto"
	"strings"
)

// Pair is a header name and value as supplied, with the original name casing.
// It marshals to and from a two-element JSON array.
type Pair struct {
	Name  string
	Value string
}

// MarshalJSON encodes the pair as ["Name", "value"].
func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Name, p.Value})
}

// UnmarshalJSON decodes a ["Name", "value"] array.
func (p *Pair) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("header pair: %w", err)
	}
	if len(arr) != 2 {
		return fmt.Errorf("header pair: expected [name, value], got %d elements", len(arr))
	}
	p.Name, p.Value = arr[0], arr[1]
	return nil
}

// Policy is the merge rule applied to repeated occurrences of a header name.
type Policy int

const (
	// PolicyJoin joins repeated values with ", ".
	PolicyJoin Policy = iota
	// PolicySingle keeps the first value and drops later ones.
	PolicySingle
	// PolicyMulti keeps every value as a list.
	PolicyMulti
)

func (p Policy) String() string {
	switch p {
	case PolicySingle:
		return "single"
	case PolicyMulti:
		return "multi"
	default:
		return "join"
	}
}

var singleWrite = map[string]struct{}{
	"age":                 {},
	"authorization":       {},
	"content-length":      {},
	"content-type":        {},
	"etag":                {},
	"expires":             {},
	"from":                {},
	"host":                {},
	"if-modified-since":   {},
	"if-unmodified-since": {},
	"last-modified":       {},
	"location":            {},
	"max-forwards":        {},
	"proxy-authorization": {},
	"referer":             {},
	"retry-after":         {},
	"user-agent":          {},
}

// PolicyFor returns the merge policy for a header name. Names are matched
// case-insensitively.
func PolicyFor(name string) Policy {
	key := strings.ToLower(name)
	if key == "set-cookie" {
		return PolicyMulti
	}
	if _, ok := singleWrite[key]; ok {
		return PolicySingle
	}
	return PolicyJoin
}

type field struct {
	value  string
	values []string
	multi  bool
}

// Table is a normalized header set keyed by lower-cased name.
type Table struct {
	fields map[string]*field
	order  []string
	raw    []Pair
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{fields: make(map[string]*field)}
}

// Normalize folds pairs into a new table, in order.
func Normalize(pairs []Pair) *Table {
	t := NewTable()
	for _, p := range pairs {
		t.Add(p.Name, p.Value)
	}
	return t
}

// Add merges one occurrence of a header into the table.
func (t *Table) Add(name, value string) {
	key := strings.ToLower(name)
	t.raw = append(t.raw, Pair{Name: name, Value: value})

	f, exists := t.fields[key]
	switch PolicyFor(key) {
	case PolicySingle:
		if exists {
			return
		}
		t.set(key, &field{value: value})
	case PolicyMulti:
		if exists {
			f.values = append(f.values, value)
			return
		}
		t.set(key, &field{values: []string{value}, multi: true})
	default:
		if exists {
			f.value = f.value + ", " + value
			return
		}
		t.set(key, &field{value: value})
	}
}

func (t *Table) set(key string, f *field) {
	t.fields[key] = f
	t.order = append(t.order, key)
}

// Get returns the value stored for name. For multi-valued headers it returns
// the first value.
func (t *Table) Get(name string) string {
	f, ok := t.fields[strings.ToLower(name)]
	if !ok {
		return ""
	}
	if f.multi {
		return f.values[0]
	}
	return f.value
}

// Values returns every value stored for name.
func (t *Table) Values(name string) []string {
	f, ok := t.fields[strings.ToLower(name)]
	if !ok {
		return nil
	}
	if f.multi {
		return append([]string(nil), f.values...)
	}
	return []string{f.value}
}

// Has reports whether name is present in the table.
func (t *Table) Has(name string) bool {
	_, ok := t.fields[strings.ToLower(name)]
	return ok
}

// IsMulti reports whether name holds a list of values.
func (t *Table) IsMulti(name string) bool {
	f, ok := t.fields[strings.ToLower(name)]
	return ok && f.multi
}

// Keys returns the lower-cased names in first-seen order.
func (t *Table) Keys() []string {
	return append([]string(nil), t.order...)
}

// Len returns the number of distinct names.
func (t *Table) Len() int {
	return len(t.order)
}

// Raw returns every supplied pair in input order.
func (t *Table) Raw() []Pair {
	return append([]Pair(nil), t.raw...)
}

// HTTPHeader renders the table as an http.Header with canonical keys.
func (t *Table) HTTPHeader() http.Header {
	h := make(http.Header, len(t.order))
	for _, key := range t.order {
		h[textproto.CanonicalMIMEHeaderKey(key)] = t.Values(key)
	}
	return h
}

// Map renders the table as plain values: a string per name, or a []string
// for multi-valued names.
func (t *Table) Map() map[string]any {
	m := make(map[string]any, len(t.order))
	for _, key := range t.order {
		f := t.fields[key]
		if f.multi {
			m[key] = append([]string(nil), f.values...)
		} else {
			m[key] = f.value
		}
	}
	return m
}

// MarshalJSON encodes the table as its Map form.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Map())
}
