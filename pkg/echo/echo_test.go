package echo

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/httpsim/pkg/header"
	"github.com/getmockd/httpsim/pkg/request"
	"github.com/getmockd/httpsim/pkg/simulator"
)

func TestHandler_EchoesRequest(t *testing.T) {
	t.Parallel()

	body := `{"name":"nyarla"}`
	sim := simulator.New(Handler{})
	res, err := sim.Exchange(context.Background(), request.Spec{
		HTTPVersion: "1.1",
		Method:      "post",
		Path:        "http://localhost/users/{id}",
		PathParams:  map[string]any{"id": "42"},
		QueryParams: map[string]any{"v": "1"},
		Headers: []header.Pair{
			{Name: "X-Tag", Value: "a"},
			{Name: "X-Tag", Value: "b"},
		},
		Body: &body,
	})
	require.NoError(t, err)

	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "application/json", res.Header("Content-Type"))

	var reply Reply
	require.NoError(t, json.Unmarshal([]byte(res.Body), &reply))
	assert.Equal(t, "POST", reply.Method)
	assert.Equal(t, "http://localhost/users/42?v=1", reply.URL)
	assert.Equal(t, "1.1", reply.HTTPVersion)
	assert.Equal(t, "a, b", reply.Headers["x-tag"])
	assert.Len(t, reply.RawHeaders, 2)
	assert.Equal(t, body, reply.Body)
}

func TestHandler_StatusOverride(t *testing.T) {
	t.Parallel()

	sim := simulator.New(Handler{})
	res, err := sim.Exchange(context.Background(), request.Spec{
		Headers: []header.Pair{{Name: StatusHeader, Value: "204"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 204, res.StatusCode)
	assert.Equal(t, "No Content", res.StatusMessage)
	assert.Empty(t, res.Body)
}

func TestHandler_InvalidStatusOverride(t *testing.T) {
	t.Parallel()

	sim := simulator.New(Handler{})
	_, err := sim.Exchange(context.Background(), request.Spec{
		Headers: []header.Pair{{Name: StatusHeader, Value: "teapot"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), StatusHeader)
}

func TestHandler_HeadHasNoBody(t *testing.T) {
	t.Parallel()

	sim := simulator.New(Handler{})
	res, err := sim.Exchange(context.Background(), request.Spec{Method: "HEAD"})
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	assert.Empty(t, res.Body)
}
