package response

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/httpsim/pkg/header"
	"github.com/getmockd/httpsim/pkg/request"
)

type capture struct {
	calls int
	err   error
	res   *Result
}

func (c *capture) done(err error, res *Result) {
	c.calls++
	c.err = err
	c.res = res
}

func newResponse(t *testing.T, method string) (*Response, *capture) {
	t.Helper()
	req, err := request.Build(request.Spec{Method: method, Path: "https://localhost/nyarla"})
	require.NoError(t, err)
	c := &capture{}
	return New(req, c.done), c
}

func TestEnd_HelloWorld(t *testing.T) {
	t.Parallel()

	w, c := newResponse(t, "get")
	w.SetStatus(200)
	require.NoError(t, w.SetHeader("Content-Type", "text/plain"))

	ok, err := w.End("hello, world!", "")
	require.NoError(t, err)
	assert.True(t, ok)

	require.Equal(t, 1, c.calls)
	require.NoError(t, c.err)
	assert.Equal(t, &Result{
		StatusCode:    200,
		StatusMessage: "OK",
		Headers:       []header.Pair{{Name: "Content-Type", Value: "text/plain"}},
		Body:          "hello, world!",
	}, c.res)
	assert.Equal(t, int64(len("hello, world!")), w.ContentLength())
	assert.True(t, w.HeadersSent())
	assert.True(t, w.Finished())
}

func TestEnd_Twice(t *testing.T) {
	t.Parallel()

	w, c := newResponse(t, "GET")

	ok, err := w.End(nil, "")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = w.End("again", "")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 1, c.calls)
	assert.Empty(t, c.res.Body)
	assert.Equal(t, int64(0), w.ContentLength())
}

func TestEnd_InvalidArgument(t *testing.T) {
	t.Parallel()

	w, c := newResponse(t, "GET")

	for _, data := range []any{42, 3.14, map[string]string{}, struct{}{}} {
		ok, err := w.End(data, "")
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}

	ok, err := w.End([]byte("x"), "klingon")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, 0, c.calls)
	assert.False(t, w.Finished())
}

func TestEnd_ByteData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     any
		encoding string
		want     string
	}{
		{"bytes default", []byte("abc"), "", "abc"},
		{"buffer", bytes.NewBufferString("buf"), "", "buf"},
		{"hex", []byte{0xde, 0xad}, "hex", "dead"},
		{"base64", []byte("hi"), "base64", "aGk="},
		{"base64url", []byte{0xfb, 0xff}, "base64url", "-_8"},
		{"latin1", []byte{0x63, 0x61, 0x66, 0xe9}, "latin1", "café"},
		{"ascii", []byte{0xc1}, "ascii", "A"},
		{"utf16le", []byte{0x68, 0x00, 0x69, 0x00}, "utf16le", "hi"},
		{"utf8 replaces invalid", []byte{0x61, 0xff}, "utf8", "a\uFFFD"},
		{"default decodes as utf8", []byte{0x61, 0xff, 0x62}, "", "a\uFFFDb"},
		{"string ignores encoding", "plain", "hex", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w, c := newResponse(t, "POST")
			ok, err := w.End(tt.data, tt.encoding)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.want, c.res.Body)
		})
	}
}

func TestEnd_BodySuppression(t *testing.T) {
	t.Parallel()

	t.Run("HEAD request", func(t *testing.T) {
		t.Parallel()
		w, c := newResponse(t, "HEAD")
		ok, err := w.End("ignored", "")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, c.res.Body)
		assert.Equal(t, int64(len("ignored")), w.ContentLength())
	})

	for _, status := range []int{101, 204, 304} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			t.Parallel()
			w, c := newResponse(t, "GET")
			w.SetStatus(status)
			ok, err := w.End("ignored", "")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Empty(t, c.res.Body)
			assert.Equal(t, status, c.res.StatusCode)
		})
	}
}

func TestEnd_InvalidStatus(t *testing.T) {
	t.Parallel()

	w, c := newResponse(t, "GET")
	w.SetStatus(42)

	ok, err := w.End("x", "")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Equal(t, 0, c.calls)
}

func TestEnd_StatusMessage(t *testing.T) {
	t.Parallel()

	w, c := newResponse(t, "GET")
	w.SetStatus(404)
	_, err := w.End(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "Not Found", c.res.StatusMessage)

	w, c = newResponse(t, "GET")
	w.SetStatus(299)
	_, err = w.End(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "unknown", c.res.StatusMessage)

	w, c = newResponse(t, "GET")
	w.SetStatusMessage("Fine")
	_, err = w.End(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "Fine", c.res.StatusMessage)
}

func TestHeaders_Order(t *testing.T) {
	t.Parallel()

	w, c := newResponse(t, "GET")
	require.NoError(t, w.SetHeader("X-B", "1"))
	require.NoError(t, w.SetHeader("x-a", "2"))
	require.NoError(t, w.SetHeader("X-A", "3"))
	require.NoError(t, w.SetHeader("Set-Cookie", "a=1", "b=2"))
	w.Header().Set("X-Raw", "r")
	require.NoError(t, w.SetHeader("X-Gone", "g"))
	require.NoError(t, w.RemoveHeader("x-gone"))

	_, err := w.End(nil, "")
	require.NoError(t, err)

	assert.Equal(t, []header.Pair{
		{Name: "X-B", Value: "1"},
		{Name: "X-A", Value: "3"},
		{Name: "Set-Cookie", Value: "a=1"},
		{Name: "Set-Cookie", Value: "b=2"},
		{Name: "X-Raw", Value: "r"},
	}, c.res.Headers)
	assert.Equal(t, "3", c.res.Header("x-a"))
	assert.Equal(t, []string{"a=1", "b=2"}, c.res.HeaderValues("set-cookie"))
}

func TestHeaders_Validation(t *testing.T) {
	t.Parallel()

	w, _ := newResponse(t, "GET")
	assert.ErrorIs(t, w.SetHeader("Bad Name", "x"), ErrInvalidArgument)
	assert.ErrorIs(t, w.SetHeader("X-Ok", "line\nbreak"), ErrInvalidArgument)
	assert.ErrorIs(t, w.SetHeader("X-Empty"), ErrInvalidArgument)

	require.NoError(t, w.SetHeader("X-Ok", "v"))
	assert.Equal(t, "v", w.GetHeader("x-ok"))

	w.WriteHeader(201)
	assert.ErrorIs(t, w.SetHeader("X-Late", "v"), ErrHeadersSent)
	assert.ErrorIs(t, w.RemoveHeader("X-Ok"), ErrHeadersSent)
}

func TestWrite_ResponseWriter(t *testing.T) {
	t.Parallel()

	w, c := newResponse(t, "GET")
	var rw http.ResponseWriter = w

	rw.Header().Set("Content-Type", "text/plain")
	rw.WriteHeader(http.StatusCreated)
	rw.WriteHeader(http.StatusTeapot) // superfluous
	_, err := rw.Write([]byte("hello, "))
	require.NoError(t, err)

	ok, err := w.End("world", "")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, http.StatusCreated, c.res.StatusCode)
	assert.Equal(t, "Created", c.res.StatusMessage)
	assert.Equal(t, "hello, world", c.res.Body)
	assert.Equal(t, int64(-1), w.ContentLength())

	_, err = rw.Write([]byte("late"))
	assert.ErrorIs(t, err, ErrFinished)
}

func TestWrite_BodyNotAllowed(t *testing.T) {
	t.Parallel()

	w, _ := newResponse(t, "GET")
	w.WriteHeader(http.StatusNoContent)
	_, err := w.Write([]byte("x"))
	assert.ErrorIs(t, err, http.ErrBodyNotAllowed)
}

func TestWrite_HeadDiscardsBody(t *testing.T) {
	t.Parallel()

	w, c := newResponse(t, "HEAD")
	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	ok, err := w.End(nil, "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 200, c.res.StatusCode)
	assert.Empty(t, c.res.Body)
}

func TestWriteHeader_PanicsOnInvalidCode(t *testing.T) {
	t.Parallel()

	w, _ := newResponse(t, "GET")
	assert.Panics(t, func() { w.WriteHeader(0) })
}

func TestFlush_SendsHeaders(t *testing.T) {
	t.Parallel()

	w, _ := newResponse(t, "GET")
	var f http.Flusher = w
	f.Flush()
	assert.True(t, w.HeadersSent())
}

func TestFail(t *testing.T) {
	t.Parallel()

	w, c := newResponse(t, "GET")
	assert.True(t, w.Fail(assert.AnError))
	assert.False(t, w.Fail(assert.AnError))

	ok, err := w.End("late", "")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 1, c.calls)
	assert.ErrorIs(t, c.err, assert.AnError)
	assert.Nil(t, c.res)
}

func TestBodyAllowedForStatus(t *testing.T) {
	t.Parallel()

	assert.False(t, BodyAllowedForStatus(100))
	assert.False(t, BodyAllowedForStatus(204))
	assert.False(t, BodyAllowedForStatus(304))
	assert.True(t, BodyAllowedForStatus(200))
	assert.True(t, BodyAllowedForStatus(404))
}
