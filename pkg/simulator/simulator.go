// Package simulator drives an HTTP handler through one in-memory exchange,
// without a listener or socket, and reports the captured response.
//
//	sim := simulator.New(simulator.HandlerFunc(func(req *request.Request, res *response.Response) error {
//		res.SetStatus(200)
//		_ = res.SetHeader("Content-Type", "text/plain")
//		_, err := res.End("hello, world!", "")
//		return err
//	}))
//
//	sim.Simulate(request.Spec{Method: "GET"}, func(err error, res *response.Result) {
//		// exactly one of err and res is set
//	})
package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/getmockd/httpsim/internal/id"
	"github.com/getmockd/httpsim/pkg/logging"
	"github.com/getmockd/httpsim/pkg/request"
	"github.com/getmockd/httpsim/pkg/response"
	"github.com/getmockd/httpsim/pkg/util"
)

// Handler serves one simulated request. Returning an error reports it to the
// exchange callback unless the response was already finalized.
type Handler interface {
	ServeSimulated(req *request.Request, res *response.Response) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(req *request.Request, res *response.Response) error

// ServeSimulated calls f(req, res).
func (f HandlerFunc) ServeSimulated(req *request.Request, res *response.Response) error {
	return f(req, res)
}

// FromHTTP adapts a net/http handler. The response is finalized when
// ServeHTTP returns.
func FromHTTP(h http.Handler) Handler {
	return HandlerFunc(func(req *request.Request, res *response.Response) error {
		r, err := req.HTTPRequest(context.Background())
		if err != nil {
			return err
		}
		h.ServeHTTP(res, r)
		_, err = res.End(nil, "")
		return err
	})
}

// PanicError wraps a value recovered from a panicking handler or listener.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets the logger for exchange lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// Simulator runs exchanges against a handler. It holds no per-exchange state
// and may be shared.
type Simulator struct {
	handler Handler
	logger  *slog.Logger
}

// New returns a simulator for h.
func New(h Handler, opts ...Option) *Simulator {
	s := &Simulator{
		handler: h,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Simulate runs one exchange. done receives exactly one of (err, nil) or
// (nil, result), on this goroutine unless the handler finalizes the response
// later from another one.
func (s *Simulator) Simulate(spec request.Spec, done response.Callback) {
	log := s.logger.With("exchange", id.Exchange())

	callback := func(err error, res *response.Result) {
		if err != nil {
			log.Debug("exchange failed", "error", err)
		} else {
			log.Debug("exchange completed",
				"status", res.StatusCode,
				"headers", len(res.Headers),
				"body", util.TruncateBody(res.Body, 0))
		}
		if done != nil {
			done(err, res)
		}
	}

	req, err := request.Build(spec)
	if err != nil {
		callback(err, nil)
		return
	}
	log.Debug("exchange started", "method", req.Method, "url", req.URL, "version", req.Version.String())

	res := response.New(req, callback)
	fail := func(err error) {
		if !res.Fail(err) {
			log.Warn("handler error after response was finalized", "error", err)
		}
	}

	if err := guard(func() error { return s.handler.ServeSimulated(req, res) }); err != nil {
		fail(err)
		return
	}

	err = guard(func() error {
		if req.HasBody() {
			req.EmitData(req.Body())
		}
		req.EmitEnd()
		return nil
	})
	if err != nil {
		fail(err)
	}
}

// Exchange runs one exchange and waits for its outcome or for ctx to end.
func (s *Simulator) Exchange(ctx context.Context, spec request.Spec) (*response.Result, error) {
	type outcome struct {
		res *response.Result
		err error
	}
	ch := make(chan outcome, 1)

	s.Simulate(spec, func(err error, res *response.Result) {
		ch <- outcome{res: res, err: err}
	})

	select {
	case o := <-ch:
		return o.res, o.err
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for response: %w", ctx.Err())
	}
}

// guard runs fn and converts a panic into a *PanicError.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
