// Package echo provides a handler that answers with a JSON description of the
// request it received. The CLI runs scenario files against it.
package echo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/getmockd/httpsim/pkg/header"
	"github.com/getmockd/httpsim/pkg/request"
	"github.com/getmockd/httpsim/pkg/response"
)

// StatusHeader names the request header that overrides the reply status.
const StatusHeader = "X-Echo-Status"

// Reply is the JSON body written by Handler.
type Reply struct {
	Method      string         `json:"method"`
	URL         string         `json:"url"`
	HTTPVersion string         `json:"httpVersion"`
	Headers     map[string]any `json:"headers"`
	RawHeaders  []header.Pair  `json:"rawHeaders"`
	Body        string         `json:"body"`
}

// Handler collects body chunks and replies once the request has ended.
// The reply status is 200 unless the request carries StatusHeader.
type Handler struct{}

// ServeSimulated implements simulator.Handler.
func (Handler) ServeSimulated(req *request.Request, res *response.Response) error {
	status := http.StatusOK
	if s := req.Header.Get(StatusHeader); s != "" {
		code, err := strconv.Atoi(s)
		if err != nil || code < 100 || code > 999 {
			return fmt.Errorf("echo: invalid %s %q", StatusHeader, s)
		}
		status = code
	}

	var body bytes.Buffer
	req.OnData(func(chunk []byte) {
		body.Write(chunk)
	})
	req.OnEnd(func() {
		if err := reply(req, res, status, body.String()); err != nil {
			res.Fail(err)
		}
	})
	return nil
}

func reply(req *request.Request, res *response.Response, status int, body string) error {
	raw := req.Header.Raw()
	if raw == nil {
		raw = []header.Pair{}
	}

	data, err := json.Marshal(Reply{
		Method:      req.Method,
		URL:         req.URL,
		HTTPVersion: req.Version.String(),
		Headers:     req.Header.Map(),
		RawHeaders:  raw,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("echo: encode reply: %w", err)
	}

	res.SetStatus(status)
	if err := res.SetHeader("Content-Type", "application/json"); err != nil {
		return err
	}
	_, err = res.End(data, "")
	return err
}
