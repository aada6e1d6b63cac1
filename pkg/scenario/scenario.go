// Package scenario loads request scenarios from YAML or JSON files and runs
// them through a simulator, checking each response against expectations.
//
// A scenario file looks like:
//
//	name: users
//	defaults:
//	  httpVersion: 1.1
//	  headers:
//	    Accept: application/json
//	cases:
//	  - name: create user
//	    request:
//	      method: POST
//	      path: http://localhost/users/{id}
//	      pathParams: {id: 42}
//	      body: {name: nyarla}
//	    expect:
//	      status: 200
//	      headers: {Content-Type: application/json}
//	      jsonPath: {$.method: POST}
//	      expr: statusCode < 300
//
// ${VAR} and ${VAR:-default} references are replaced from the environment
// before parsing.
package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/httpsim/pkg/header"
	"github.com/getmockd/httpsim/pkg/request"
)

// ErrInvalid reports a malformed scenario file.
var ErrInvalid = errors.New("invalid scenario")

// Suite is one scenario file.
type Suite struct {
	Name     string   `yaml:"name" json:"name"`
	Defaults Defaults `yaml:"defaults" json:"defaults"`
	Cases    []Case   `yaml:"cases" json:"cases"`

	// File is the path the suite was loaded from, if any.
	File string `yaml:"-" json:"-"`
}

// Defaults apply to every case that does not set the field itself.
type Defaults struct {
	HTTPVersion Version `yaml:"httpVersion" json:"httpVersion"`
	Headers     Headers `yaml:"headers" json:"headers"`
}

// Case is one request and the expectations on its response.
type Case struct {
	Name    string  `yaml:"name" json:"name"`
	Request Request `yaml:"request" json:"request"`
	Expect  Expect  `yaml:"expect" json:"expect"`
}

// Request is the file form of request.Spec.
type Request struct {
	HTTPVersion Version        `yaml:"httpVersion" json:"httpVersion"`
	Method      string         `yaml:"method" json:"method"`
	Path        string         `yaml:"path" json:"path"`
	PathParams  map[string]any `yaml:"pathParams" json:"pathParams"`
	QueryParams map[string]any `yaml:"queryParams" json:"queryParams"`
	Headers     Headers        `yaml:"headers" json:"headers"`

	// Body is sent as is when it is a string and JSON-encoded otherwise.
	Body any `yaml:"body" json:"body"`
}

// Spec converts the case request into a request.Spec.
func (c *Case) Spec() (request.Spec, error) {
	return c.Request.Spec()
}

// Spec converts r into a request.Spec.
func (r *Request) Spec() (request.Spec, error) {
	spec := request.Spec{
		HTTPVersion: r.HTTPVersion.Value(),
		Method:      r.Method,
		Path:        r.Path,
		PathParams:  r.PathParams,
		QueryParams: r.QueryParams,
		Headers:     []header.Pair(r.Headers),
	}

	switch b := r.Body.(type) {
	case nil:
	case string:
		spec.Body = &b
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return request.Spec{}, fmt.Errorf("%w: encode body: %v", ErrInvalid, err)
		}
		s := string(data)
		spec.Body = &s
	}
	return spec, nil
}

// applyDefaults fills unset case fields from d. Default headers come first
// and are skipped when the case sets the same name.
func (r *Request) applyDefaults(d Defaults) {
	if r.HTTPVersion.IsZero() {
		r.HTTPVersion = d.HTTPVersion
	}
	if len(d.Headers) == 0 {
		return
	}

	merged := make(Headers, 0, len(d.Headers)+len(r.Headers))
	for _, p := range d.Headers {
		if !r.Headers.has(p.Name) {
			merged = append(merged, p)
		}
	}
	r.Headers = append(merged, r.Headers...)
}

// Version holds an httpVersion field as written in the file. Scalars keep
// their literal text so that 1.10 is not read as the float 1.1.
type Version struct {
	value any
}

// NewVersion wraps a value accepted by httpversion.Parse.
func NewVersion(v any) Version {
	return Version{value: v}
}

// Value returns the wrapped value, or nil when unset.
func (v Version) Value() any {
	return v.value
}

// IsZero reports whether the field was absent.
func (v Version) IsZero() bool {
	return v.value == nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Version) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			v.value = nil
			return nil
		}
		v.value = node.Value
	case yaml.SequenceNode:
		var pair []any
		if err := node.Decode(&pair); err != nil {
			return err
		}
		v.value = pair
	case yaml.MappingNode:
		var record map[string]any
		if err := node.Decode(&record); err != nil {
			return err
		}
		v.value = record
	default:
		return fmt.Errorf("%w: line %d: unsupported httpVersion", ErrInvalid, node.Line)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.value)
}

// Headers is an ordered header list. In files it is either a mapping of name
// to a value or list of values, or a list of [name, value] pairs.
type Headers []header.Pair

// UnmarshalYAML implements yaml.Unmarshaler.
func (h *Headers) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		var out Headers
		for i := 0; i+1 < len(node.Content); i += 2 {
			name, val := node.Content[i], node.Content[i+1]
			switch val.Kind {
			case yaml.ScalarNode:
				out = append(out, header.Pair{Name: name.Value, Value: val.Value})
			case yaml.SequenceNode:
				for _, item := range val.Content {
					if item.Kind != yaml.ScalarNode {
						return fmt.Errorf("%w: line %d: header %s values must be scalars", ErrInvalid, item.Line, name.Value)
					}
					out = append(out, header.Pair{Name: name.Value, Value: item.Value})
				}
			default:
				return fmt.Errorf("%w: line %d: header %s must be a scalar or list", ErrInvalid, val.Line, name.Value)
			}
		}
		*h = out
	case yaml.SequenceNode:
		var raw [][]string
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("%w: line %d: headers: %v", ErrInvalid, node.Line, err)
		}
		out := make(Headers, 0, len(raw))
		for i, p := range raw {
			if len(p) != 2 {
				return fmt.Errorf("%w: headers[%d]: want [name, value], got %d elements", ErrInvalid, i, len(p))
			}
			out = append(out, header.Pair{Name: p[0], Value: p[1]})
		}
		*h = out
	case yaml.ScalarNode:
		if node.Tag != "!!null" {
			return fmt.Errorf("%w: line %d: headers must be a mapping or list", ErrInvalid, node.Line)
		}
		*h = nil
	default:
		return fmt.Errorf("%w: line %d: headers must be a mapping or list", ErrInvalid, node.Line)
	}
	return nil
}

func (h Headers) has(name string) bool {
	for _, p := range h {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}
