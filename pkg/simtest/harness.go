package simtest

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/getmockd/httpsim/pkg/request"
	"github.com/getmockd/httpsim/pkg/response"
	"github.com/getmockd/httpsim/pkg/simulator"
)

// DefaultTimeout bounds how long Do and Exchange wait for a response.
const DefaultTimeout = 5 * time.Second

// Exchange is one recorded request and its outcome.
type Exchange struct {
	Method string
	URL    string
	Spec   request.Spec
	Result *response.Result
	Err    error
}

// Harness runs requests against one handler and records them.
type Harness struct {
	t       testing.TB
	sim     *simulator.Simulator
	timeout time.Duration

	mu        sync.RWMutex
	exchanges []Exchange
}

// New creates a harness for a simulated handler.
func New(t testing.TB, h simulator.Handler, opts ...simulator.Option) *Harness {
	t.Helper()
	return &Harness{
		t:       t,
		sim:     simulator.New(h, opts...),
		timeout: DefaultTimeout,
	}
}

// NewHTTP creates a harness for a net/http handler.
func NewHTTP(t testing.TB, h http.Handler, opts ...simulator.Option) *Harness {
	t.Helper()
	return New(t, simulator.FromHTTP(h), opts...)
}

// WithTimeout changes how long requests wait for the handler to respond.
func (h *Harness) WithTimeout(d time.Duration) *Harness {
	h.timeout = d
	return h
}

// Simulator returns the underlying simulator.
func (h *Harness) Simulator() *simulator.Simulator {
	return h.sim
}

// Request starts building a request.
func (h *Harness) Request(method, path string) *RequestBuilder {
	return &RequestBuilder{
		h:    h,
		spec: request.Spec{Method: method, Path: path},
	}
}

// run performs one exchange and records it.
func (h *Harness) run(spec request.Spec) (*response.Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	res, err := h.sim.Exchange(ctx, spec)

	ex := Exchange{Spec: spec, Result: res, Err: err}
	if req, buildErr := request.Build(spec); buildErr == nil {
		ex.Method = req.Method
		ex.URL = req.URL
	} else {
		ex.Method = strings.ToUpper(spec.Method)
		ex.URL = spec.Path
	}

	h.mu.Lock()
	h.exchanges = append(h.exchanges, ex)
	h.mu.Unlock()

	return res, err
}

// Exchanges returns the recorded exchanges, oldest first.
func (h *Harness) Exchanges() []Exchange {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Exchange, len(h.exchanges))
	copy(out, h.exchanges)
	return out
}

// Reset clears the recorded exchanges.
func (h *Harness) Reset() {
	h.mu.Lock()
	h.exchanges = nil
	h.mu.Unlock()
}

// AssertCalled asserts that an endpoint was called at least once.
func (h *Harness) AssertCalled(t testing.TB, method, path string) {
	t.Helper()

	count := h.countCalls(method, path)
	if count == 0 {
		t.Errorf("expected %s %s to be called, but it was not called", method, path)
	}
}

// AssertCalledTimes asserts that an endpoint was called exactly n times.
func (h *Harness) AssertCalledTimes(t testing.TB, method, path string, times int) {
	t.Helper()

	count := h.countCalls(method, path)
	if count != times {
		t.Errorf("expected %s %s to be called %d times, but was called %d times",
			method, path, times, count)
	}
}

// AssertNotCalled asserts that an endpoint was not called.
func (h *Harness) AssertNotCalled(t testing.TB, method, path string) {
	t.Helper()

	count := h.countCalls(method, path)
	if count > 0 {
		t.Errorf("expected %s %s to not be called, but it was called %d times",
			method, path, count)
	}
}

// countCalls counts exchanges whose method and URL path match.
func (h *Harness) countCalls(method, path string) int {
	count := 0
	for _, ex := range h.Exchanges() {
		if !strings.EqualFold(ex.Method, method) {
			continue
		}
		if matchesPath(urlPath(ex.URL), path) {
			count++
		}
	}
	return count
}

func urlPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}

// matchesPath checks if a request path matches the expected path pattern.
// Supports exact matching and path parameters ({id} patterns).
func matchesPath(actual, expected string) bool {
	if actual == expected {
		return true
	}

	actualParts := strings.Split(actual, "/")
	expectedParts := strings.Split(expected, "/")

	if len(actualParts) != len(expectedParts) {
		return false
	}

	for i := range expectedParts {
		exp := expectedParts[i]
		if strings.HasPrefix(exp, "{") && strings.HasSuffix(exp, "}") {
			continue
		}
		if exp != actualParts[i] {
			return false
		}
	}

	return true
}
