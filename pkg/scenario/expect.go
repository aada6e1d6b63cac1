package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getmockd/httpsim/internal/matching"
	"github.com/getmockd/httpsim/pkg/response"
)

// Expect lists the checks applied to a case's response. Unset fields are
// not checked.
type Expect struct {
	Status        int               `yaml:"status" json:"status,omitempty"`
	StatusMessage string            `yaml:"statusMessage" json:"statusMessage,omitempty"`
	Headers       map[string]string `yaml:"headers" json:"headers,omitempty"`
	Body          *string           `yaml:"body" json:"body,omitempty"`
	BodyContains  string            `yaml:"bodyContains" json:"bodyContains,omitempty"`
	JSONPath      map[string]any    `yaml:"jsonPath" json:"jsonPath,omitempty"`
	XPath         map[string]string `yaml:"xpath" json:"xpath,omitempty"`
	Schema        any               `yaml:"schema" json:"schema,omitempty"`
	Expr          string            `yaml:"expr" json:"expr,omitempty"`
}

// Check runs every expectation against res and joins all failures.
//
// Header expectations compare the values of a header joined with ", ". An
// empty expected value asserts that the header is absent.
func (e *Expect) Check(res *response.Result) error {
	if res == nil {
		return fmt.Errorf("%w: no response", matching.ErrMismatch)
	}

	var errs []error

	if e.Status != 0 && res.StatusCode != e.Status {
		errs = append(errs, fmt.Errorf("%w: status: got %d, want %d", matching.ErrMismatch, res.StatusCode, e.Status))
	}
	if e.StatusMessage != "" && res.StatusMessage != e.StatusMessage {
		errs = append(errs, fmt.Errorf("%w: status message: got %q, want %q", matching.ErrMismatch, res.StatusMessage, e.StatusMessage))
	}

	for _, name := range sortedKeys(e.Headers) {
		want := e.Headers[name]
		values := res.HeaderValues(name)
		switch {
		case want == "" && len(values) > 0:
			errs = append(errs, fmt.Errorf("%w: header %s: got %q, want absent", matching.ErrMismatch, name, values))
		case want != "" && len(values) == 0:
			errs = append(errs, fmt.Errorf("%w: header %s: absent, want %q", matching.ErrMismatch, name, want))
		case want != "" && strings.Join(values, ", ") != want:
			errs = append(errs, fmt.Errorf("%w: header %s: got %q, want %q", matching.ErrMismatch, name, strings.Join(values, ", "), want))
		}
	}

	if e.Body != nil && res.Body != *e.Body {
		errs = append(errs, fmt.Errorf("%w: body: got %q, want %q", matching.ErrMismatch, res.Body, *e.Body))
	}
	if e.BodyContains != "" && !strings.Contains(res.Body, e.BodyContains) {
		errs = append(errs, fmt.Errorf("%w: body does not contain %q", matching.ErrMismatch, e.BodyContains))
	}

	body := []byte(res.Body)
	for _, path := range sortedKeys(e.JSONPath) {
		if err := matching.JSONPath(body, path, e.JSONPath[path]); err != nil {
			errs = append(errs, err)
		}
	}
	for _, path := range sortedKeys(e.XPath) {
		if err := matching.XPath(body, path, e.XPath[path]); err != nil {
			errs = append(errs, err)
		}
	}
	if e.Schema != nil {
		if err := matching.Schema(body, e.Schema); err != nil {
			errs = append(errs, err)
		}
	}
	if e.Expr != "" {
		if err := matching.Expr(e.Expr, exprEnv(res)); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// exprEnv exposes a result to expectation expressions. Header names are
// lower-cased and multiple values joined with ", ". json holds the decoded
// body, or an empty map when the body is not JSON.
func exprEnv(res *response.Result) map[string]any {
	headers := make(map[string]any, len(res.Headers))
	for _, p := range res.Headers {
		key := strings.ToLower(p.Name)
		if prev, ok := headers[key].(string); ok {
			headers[key] = prev + ", " + p.Value
		} else {
			headers[key] = p.Value
		}
	}

	var decoded any
	if err := json.Unmarshal([]byte(res.Body), &decoded); err != nil || decoded == nil {
		decoded = map[string]any{}
	}

	return map[string]any{
		"statusCode":    res.StatusCode,
		"statusMessage": res.StatusMessage,
		"headers":       headers,
		"body":          res.Body,
		"json":          decoded,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
