// Package response captures what a handler writes and turns it into a Result
// when the response is finalized.
package response

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/http/httpguts"

	"github.com/getmockd/httpsim/pkg/header"
	"github.com/getmockd/httpsim/pkg/request"
)

var (
	// ErrInvalidArgument is returned for unsupported body values, encodings
	// and header fields.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidStatus is returned when headers are sent with a status code
	// outside 100-999.
	ErrInvalidStatus = errors.New("invalid status code")

	// ErrHeadersSent is returned when headers are changed after being sent.
	ErrHeadersSent = errors.New("headers already sent")

	// ErrFinished is returned by Write after the response was finalized.
	ErrFinished = errors.New("response already finalized")
)

// Callback receives the outcome of an exchange. Exactly one of err and res is
// non-nil.
type Callback func(err error, res *Result)

// Result is the captured response.
type Result struct {
	StatusCode    int           `json:"statusCode"`
	StatusMessage string        `json:"statusMessage"`
	Headers       []header.Pair `json:"headers"`
	Body          string        `json:"body"`
}

// Header returns the first value of the named header, matched
// case-insensitively.
func (r *Result) Header(name string) string {
	for _, p := range r.Headers {
		if strings.EqualFold(p.Name, name) {
			return p.Value
		}
	}
	return ""
}

// HeaderValues returns every value of the named header in order.
func (r *Result) HeaderValues(name string) []string {
	var out []string
	for _, p := range r.Headers {
		if strings.EqualFold(p.Name, name) {
			out = append(out, p.Value)
		}
	}
	return out
}

// Response is the response in progress for one exchange. It implements
// http.ResponseWriter and http.Flusher.
type Response struct {
	req  *request.Request
	done Callback

	mu            sync.Mutex
	status        int
	statusMessage string
	header        http.Header
	names         map[string]string // lower-cased name -> name as last set
	order         []string          // lower-cased names in first-set order
	headersSent   bool
	contentLength int64
	body          bytes.Buffer
	finished      bool
}

// New returns a response for req that reports to done when finalized.
func New(req *request.Request, done Callback) *Response {
	return &Response{
		req:           req,
		done:          done,
		status:        http.StatusOK,
		header:        make(http.Header),
		names:         make(map[string]string),
		contentLength: -1,
	}
}

// Request returns the request this response answers.
func (w *Response) Request() *request.Request {
	return w.req
}

// Header returns the header map. Entries set only through this map are
// reported after those set with SetHeader, in sorted order.
func (w *Response) Header() http.Header {
	return w.header
}

// WriteHeader sends the status line. Later calls are ignored. It panics on
// codes outside 100-999, as net/http does.
func (w *Response) WriteHeader(code int) {
	if code < 100 || code > 999 {
		panic(fmt.Sprintf("invalid WriteHeader code %v", code))
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.headersSent || w.finished {
		return
	}
	w.status = code
	w.headersSent = true
}

// Write appends p to the body, sending headers first if needed.
func (w *Response) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.finished {
		return 0, ErrFinished
	}
	if !w.headersSent {
		if err := w.sendHeadersLocked(); err != nil {
			return 0, err
		}
	}
	if !BodyAllowedForStatus(w.status) {
		return 0, http.ErrBodyNotAllowed
	}
	if w.isHeadLocked() {
		return len(p), nil
	}
	return w.body.Write(p)
}

// Flush sends headers if they have not been sent.
func (w *Response) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.headersSent && !w.finished {
		_ = w.sendHeadersLocked()
	}
}

// SetStatus sets the status code. It has no effect once headers are sent.
func (w *Response) SetStatus(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.headersSent {
		w.status = code
	}
}

// StatusCode returns the current status code.
func (w *Response) StatusCode() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// SetStatusMessage overrides the reason phrase.
func (w *Response) SetStatusMessage(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.headersSent {
		w.statusMessage = msg
	}
}

// SetHeader replaces the values of a header, keeping the supplied casing for
// the result.
func (w *Response) SetHeader(name string, values ...string) error {
	if !httpguts.ValidHeaderFieldName(name) {
		return fmt.Errorf("%w: header name %q", ErrInvalidArgument, name)
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: header %q has no value", ErrInvalidArgument, name)
	}
	for _, v := range values {
		if !httpguts.ValidHeaderFieldValue(v) {
			return fmt.Errorf("%w: header %q value %q", ErrInvalidArgument, name, v)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.headersSent {
		return fmt.Errorf("%w: cannot set %q", ErrHeadersSent, name)
	}

	lower := strings.ToLower(name)
	w.header[textproto.CanonicalMIMEHeaderKey(name)] = append([]string(nil), values...)
	if _, ok := w.names[lower]; !ok {
		w.order = append(w.order, lower)
	}
	w.names[lower] = name
	return nil
}

// GetHeader returns the first value of a header.
func (w *Response) GetHeader(name string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.header.Get(name)
}

// RemoveHeader deletes a header.
func (w *Response) RemoveHeader(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.headersSent {
		return fmt.Errorf("%w: cannot remove %q", ErrHeadersSent, name)
	}

	lower := strings.ToLower(name)
	w.header.Del(name)
	delete(w.names, lower)
	for i, k := range w.order {
		if k == lower {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return nil
}

// HeadersSent reports whether the status line and headers have been sent.
func (w *Response) HeadersSent() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.headersSent
}

// Finished reports whether the response has completed.
func (w *Response) Finished() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.finished
}

// ContentLength returns the length inferred by End, or -1 when headers were
// sent before End.
func (w *Response) ContentLength() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.contentLength
}

// End finalizes the response with optional data, reports the Result to the
// callback and returns true. Once the response has completed, End returns
// false and does nothing. data must be nil, a string, a []byte or a
// *bytes.Buffer; encoding applies to byte data only.
func (w *Response) End(data any, encoding string) (bool, error) {
	chunk, isString, err := bodyBytes(data)
	if err != nil {
		return false, err
	}
	decode, err := decoderFor(encoding)
	if err != nil {
		return false, err
	}
	if isString {
		decode = rawString
	}

	w.mu.Lock()
	if w.finished {
		w.mu.Unlock()
		return false, nil
	}

	if !w.headersSent {
		w.contentLength = int64(len(chunk))
		if err := w.sendHeadersLocked(); err != nil {
			w.mu.Unlock()
			return false, err
		}
	}

	body := w.body.String()
	if len(chunk) > 0 && w.bodyAllowedLocked() {
		s, err := decode(chunk)
		if err != nil {
			w.mu.Unlock()
			return false, err
		}
		body += s
	}

	res := &Result{
		StatusCode:    w.status,
		StatusMessage: w.statusMessageLocked(),
		Headers:       w.snapshotLocked(),
		Body:          body,
	}
	w.finished = true
	done := w.done
	w.mu.Unlock()

	if done != nil {
		done(nil, res)
	}
	return true, nil
}

// Fail completes the response with err instead of a result. It reports
// whether the callback was invoked.
func (w *Response) Fail(err error) bool {
	w.mu.Lock()
	if w.finished {
		w.mu.Unlock()
		return false
	}
	w.finished = true
	done := w.done
	w.mu.Unlock()

	if done != nil {
		done(err, nil)
	}
	return true
}

func (w *Response) sendHeadersLocked() error {
	if w.status < 100 || w.status > 999 {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, w.status)
	}
	w.headersSent = true
	return nil
}

func (w *Response) bodyAllowedLocked() bool {
	return !w.isHeadLocked() && BodyAllowedForStatus(w.status)
}

func (w *Response) isHeadLocked() bool {
	return w.req != nil && w.req.Method == http.MethodHead
}

func (w *Response) statusMessageLocked() string {
	if w.statusMessage != "" {
		return w.statusMessage
	}
	if text := http.StatusText(w.status); text != "" {
		return text
	}
	return "unknown"
}

func (w *Response) snapshotLocked() []header.Pair {
	pairs := make([]header.Pair, 0, len(w.header))
	seen := make(map[string]struct{}, len(w.order))

	for _, lower := range w.order {
		key := textproto.CanonicalMIMEHeaderKey(lower)
		values, ok := w.header[key]
		if !ok {
			continue
		}
		seen[key] = struct{}{}
		name := w.names[lower]
		for _, v := range values {
			pairs = append(pairs, header.Pair{Name: name, Value: v})
		}
	}

	var extra []string
	for key := range w.header {
		if _, ok := seen[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		for _, v := range w.header[key] {
			pairs = append(pairs, header.Pair{Name: key, Value: v})
		}
	}

	return pairs
}

// BodyAllowedForStatus reports whether a response with the given status may
// carry a body.
func BodyAllowedForStatus(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}
