package id

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchange(t *testing.T) {
	t.Parallel()

	a := Exchange()
	b := Exchange()
	assert.NotEqual(t, a, b)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
}

func TestShort(t *testing.T) {
	t.Parallel()

	s := Short()
	assert.Len(t, s, 8)
	assert.Regexp(t, `^[0-9a-f]{8}$`, s)
}
