package simtest

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/getmockd/httpsim/internal/matching"
	"github.com/getmockd/httpsim/pkg/response"
)

// Response wraps a captured result with chainable assertions. Failed
// assertions are reported with Errorf and do not stop the test.
type Response struct {
	*response.Result
	t testing.TB
}

// AssertStatus asserts the status code.
func (r *Response) AssertStatus(code int) *Response {
	r.t.Helper()
	if r.StatusCode != code {
		r.t.Errorf("expected status %d, got %d", code, r.StatusCode)
	}
	return r
}

// AssertStatusMessage asserts the status message.
func (r *Response) AssertStatusMessage(msg string) *Response {
	r.t.Helper()
	if r.StatusMessage != msg {
		r.t.Errorf("expected status message %q, got %q", msg, r.StatusMessage)
	}
	return r
}

// AssertHeader asserts that a header has a specific value.
// Multi-value headers are compared joined with ", ".
func (r *Response) AssertHeader(name, value string) *Response {
	r.t.Helper()
	values := r.HeaderValues(name)
	if len(values) == 0 {
		r.t.Errorf("expected header %s=%q, but header not present", name, value)
		return r
	}
	if actual := strings.Join(values, ", "); actual != value {
		r.t.Errorf("expected header %s=%q, got %q", name, value, actual)
	}
	return r
}

// AssertHeaderExists asserts that a header is present.
func (r *Response) AssertHeaderExists(name string) *Response {
	r.t.Helper()
	if len(r.HeaderValues(name)) == 0 {
		r.t.Errorf("expected header %s to be present", name)
	}
	return r
}

// AssertNoHeader asserts that a header is absent.
func (r *Response) AssertNoHeader(name string) *Response {
	r.t.Helper()
	if values := r.HeaderValues(name); len(values) > 0 {
		r.t.Errorf("expected header %s to be absent, got %q", name, values)
	}
	return r
}

// AssertBody asserts that the body equals expected.
func (r *Response) AssertBody(expected string) *Response {
	r.t.Helper()
	if r.Body != expected {
		r.t.Errorf("expected body %q, got %q", expected, r.Body)
	}
	return r
}

// AssertBodyContains asserts that the body contains a substring.
func (r *Response) AssertBodyContains(substr string) *Response {
	r.t.Helper()
	if !strings.Contains(r.Body, substr) {
		r.t.Errorf("expected body to contain %q, got %q", substr, r.Body)
	}
	return r
}

// AssertJSONBody asserts that the body is JSON equivalent to expected.
// expected may be a JSON string or any value that marshals to JSON.
func (r *Response) AssertJSONBody(expected any) *Response {
	r.t.Helper()

	var want []byte
	switch v := expected.(type) {
	case string:
		want = []byte(v)
	case []byte:
		want = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			r.t.Errorf("failed to marshal expected JSON: %v", err)
			return r
		}
		want = b
	}

	var wantVal, gotVal any
	if err := json.Unmarshal(want, &wantVal); err != nil {
		r.t.Errorf("expected value is not JSON: %v", err)
		return r
	}
	if err := json.Unmarshal([]byte(r.Body), &gotVal); err != nil {
		r.t.Errorf("expected JSON body, got %q: %v", r.Body, err)
		return r
	}
	if !reflect.DeepEqual(wantVal, gotVal) {
		r.t.Errorf("expected JSON body %s, got %s", compact(want), compact([]byte(r.Body)))
	}
	return r
}

// AssertJSONPath asserts the value selected by a JSONPath expression.
// An expected map of {"exists": bool} checks presence only.
func (r *Response) AssertJSONPath(path string, expected any) *Response {
	r.t.Helper()
	if err := matching.JSONPath([]byte(r.Body), path, expected); err != nil {
		r.t.Errorf("%v", err)
	}
	return r
}

// AssertXPath asserts the text or attribute value at an XPath in an XML body.
func (r *Response) AssertXPath(xpath, expected string) *Response {
	r.t.Helper()
	if err := matching.XPath([]byte(r.Body), xpath, expected); err != nil {
		r.t.Errorf("%v", err)
	}
	return r
}

// AssertJSONSchema asserts that the body validates against a JSON Schema.
func (r *Response) AssertJSONSchema(schema any) *Response {
	r.t.Helper()
	if err := matching.Schema([]byte(r.Body), schema); err != nil {
		r.t.Errorf("%v", err)
	}
	return r
}

func compact(b []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return string(b)
	}
	return buf.String()
}
