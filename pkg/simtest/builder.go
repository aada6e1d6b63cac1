package simtest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/getmockd/httpsim/pkg/header"
	"github.com/getmockd/httpsim/pkg/request"
)

// RequestBuilder accumulates a request.Spec. Only the first error is kept;
// it is reported when the request is sent.
type RequestBuilder struct {
	h    *Harness
	spec request.Spec
	err  error
}

// setError records the first error encountered during building.
func (b *RequestBuilder) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns the first error encountered during building, if any.
func (b *RequestBuilder) Err() error {
	return b.err
}

// WithVersion sets the HTTP version, in any form the request package accepts.
func (b *RequestBuilder) WithVersion(v any) *RequestBuilder {
	b.spec.HTTPVersion = v
	return b
}

// WithPathParam sets a value for a {name} placeholder in the path.
func (b *RequestBuilder) WithPathParam(name string, value any) *RequestBuilder {
	if b.spec.PathParams == nil {
		b.spec.PathParams = make(map[string]any)
	}
	b.spec.PathParams[name] = value
	return b
}

// WithQueryParam adds a query parameter.
func (b *RequestBuilder) WithQueryParam(name string, value any) *RequestBuilder {
	if b.spec.QueryParams == nil {
		b.spec.QueryParams = make(map[string]any)
	}
	b.spec.QueryParams[name] = value
	return b
}

// WithHeader appends a request header. Repeated calls add repeated headers.
func (b *RequestBuilder) WithHeader(name, value string) *RequestBuilder {
	b.spec.Headers = append(b.spec.Headers, header.Pair{Name: name, Value: value})
	return b
}

// WithBody sets the request body.
// Accepts string, []byte, or any value that will be JSON-marshaled.
func (b *RequestBuilder) WithBody(body any) *RequestBuilder {
	switch v := body.(type) {
	case string:
		b.spec.Body = &v
	case []byte:
		s := string(v)
		b.spec.Body = &s
	default:
		return b.WithJSON(body)
	}
	return b
}

// WithJSON marshals v as the request body and sets Content-Type if absent.
func (b *RequestBuilder) WithJSON(v any) *RequestBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		b.setError(fmt.Errorf("marshal JSON body: %w", err))
		return b
	}
	s := string(data)
	b.spec.Body = &s
	if !b.hasHeader("Content-Type") {
		b.WithHeader("Content-Type", "application/json")
	}
	return b
}

func (b *RequestBuilder) hasHeader(name string) bool {
	for _, p := range b.spec.Headers {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

// Spec returns the built request description.
func (b *RequestBuilder) Spec() request.Spec {
	return b.spec
}

// Exchange sends the request and returns its outcome.
func (b *RequestBuilder) Exchange() (*Response, error) {
	if b.err != nil {
		return nil, b.err
	}
	res, err := b.h.run(b.spec)
	if err != nil {
		return nil, err
	}
	return &Response{Result: res, t: b.h.t}, nil
}

// Do sends the request and fails the test if it does not produce a response.
func (b *RequestBuilder) Do() *Response {
	b.h.t.Helper()

	res, err := b.Exchange()
	if err != nil {
		b.h.t.Fatalf("%s %s: %v", strings.ToUpper(b.spec.Method), b.spec.Path, err)
		return nil
	}
	return res
}
