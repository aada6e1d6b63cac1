// Package request builds the canonical request handed to a simulated handler.
package request

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/getmockd/httpsim/pkg/header"
	"github.com/getmockd/httpsim/pkg/httpversion"
	"github.com/getmockd/httpsim/pkg/urlbuild"
)

// Defaults applied by Build for absent fields.
const (
	DefaultMethod = http.MethodGet
	DefaultPath   = "http://localhost/"
)

// RemoteAddr is the client address reported by HTTPRequest.
const RemoteAddr = "192.0.2.1:1234"

// Spec describes a request to simulate. Every field is optional.
type Spec struct {
	// HTTPVersion is a version string ("1.1"), pair ([1, 1]) or record
	// ({major, minor}). Nil means 1.0.
	HTTPVersion any `json:"httpVersion,omitempty"`

	// Method is case-insensitive. Empty means GET.
	Method string `json:"method,omitempty"`

	// Path is a URI template. Empty means DefaultPath.
	Path string `json:"path,omitempty"`

	PathParams  map[string]any `json:"pathParams,omitempty"`
	QueryParams map[string]any `json:"queryParams,omitempty"`

	// Headers are applied in order.
	Headers []header.Pair `json:"headers,omitempty"`

	// Body is delivered as one data signal for methods other than GET and
	// HEAD. Nil means no body.
	Body *string `json:"body,omitempty"`
}

// Request is the normalized form of a Spec, owned by a single exchange.
type Request struct {
	Version httpversion.Version
	Method  string
	URL     string
	Header  *header.Table

	body    []byte
	hasBody bool

	mu     sync.Mutex
	onData []func(chunk []byte)
	onEnd  []func()
	ended  bool
}

// Build normalizes spec into a Request.
func Build(spec Spec) (*Request, error) {
	version, err := httpversion.Parse(spec.HTTPVersion)
	if err != nil {
		return nil, err
	}

	method := DefaultMethod
	if spec.Method != "" {
		method = strings.ToUpper(spec.Method)
	}

	path := DefaultPath
	if spec.Path != "" {
		path = spec.Path
	}

	u, err := urlbuild.Build(path, spec.PathParams, spec.QueryParams)
	if err != nil {
		return nil, err
	}

	r := &Request{
		Version: version,
		Method:  method,
		URL:     u,
		Header:  header.Normalize(spec.Headers),
	}
	if spec.Body != nil && AllowsBody(method) {
		r.body = []byte(*spec.Body)
		r.hasBody = true
	}
	return r, nil
}

// AllowsBody reports whether a request body is delivered for method.
func AllowsBody(method string) bool {
	return method != http.MethodGet && method != http.MethodHead
}

// HasBody reports whether the request carries a body.
func (r *Request) HasBody() bool {
	return r.hasBody
}

// Body returns a copy of the request body.
func (r *Request) Body() []byte {
	if !r.hasBody {
		return nil
	}
	return bytes.Clone(r.body)
}

// OnData registers fn to receive body chunks.
func (r *Request) OnData(fn func(chunk []byte)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onData = append(r.onData, fn)
}

// OnEnd registers fn to run once the request input is complete.
func (r *Request) OnEnd(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onEnd = append(r.onEnd, fn)
}

// EmitData delivers chunk to every data listener. It does nothing after
// EmitEnd.
func (r *Request) EmitData(chunk []byte) {
	r.mu.Lock()
	if r.ended {
		r.mu.Unlock()
		return
	}
	listeners := slices.Clone(r.onData)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(bytes.Clone(chunk))
	}
}

// EmitEnd signals end of input. Only the first call has an effect.
func (r *Request) EmitEnd() {
	r.mu.Lock()
	if r.ended {
		r.mu.Unlock()
		return
	}
	r.ended = true
	listeners := slices.Clone(r.onEnd)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Ended reports whether EmitEnd has been called.
func (r *Request) Ended() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ended
}

// HTTPRequest adapts r to a *http.Request for net/http handlers. The body
// reads the request body directly rather than waiting for data signals.
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, fmt.Errorf("parse request url %q: %w", r.URL, err)
	}

	req := (&http.Request{
		Method:     r.Method,
		URL:        u,
		Proto:      r.Version.Proto(),
		ProtoMajor: r.Version.Major,
		ProtoMinor: r.Version.Minor,
		Header:     r.Header.HTTPHeader(),
		Host:       u.Host,
		RequestURI: u.RequestURI(),
		RemoteAddr: RemoteAddr,
		Body:       http.NoBody,
	}).WithContext(ctx)

	if h := r.Header.Get("host"); h != "" {
		req.Host = h
	}
	if req.Host == "" {
		req.Host = "localhost"
	}
	if r.hasBody {
		req.Body = io.NopCloser(bytes.NewReader(r.body))
		req.ContentLength = int64(len(r.body))
	}
	return req, nil
}
