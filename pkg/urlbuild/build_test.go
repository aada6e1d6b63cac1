package urlbuild

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		template string
		path     map[string]any
		query    map[string]any
		want     string
	}{
		{
			name:     "path and query",
			template: "http://localhost/{id}",
			path:     map[string]any{"id": "nyarla"},
			query:    map[string]any{"action": "search"},
			want:     "http://localhost/nyarla?action=search",
		},
		{
			name:     "no query leaves template unchanged",
			template: "http://localhost/{id}",
			path:     map[string]any{"id": "nyarla"},
			want:     "http://localhost/nyarla",
		},
		{
			name:     "missing placeholder expands to empty",
			template: "http://localhost/users/{id}",
			want:     "http://localhost/users/",
		},
		{
			name:     "path value is percent-encoded",
			template: "http://localhost/{name}",
			path:     map[string]any{"name": "a b/c"},
			want:     "http://localhost/a%20b%2Fc",
		},
		{
			name:     "numeric path value",
			template: "http://localhost/items/{id}",
			path:     map[string]any{"id": 42},
			want:     "http://localhost/items/42",
		},
		{
			name:     "list path value",
			template: "http://localhost/tags/{tags}",
			path:     map[string]any{"tags": []string{"a", "b"}},
			want:     "http://localhost/tags/a,b",
		},
		{
			name:     "query keys are sorted and encoded",
			template: "http://localhost/",
			query:    map[string]any{"q": "hello world", "a": "&"},
			want:     "http://localhost/?a=%26&q=hello%20world",
		},
		{
			name:     "repeated query values",
			template: "http://localhost/",
			query:    map[string]any{"tag": []string{"x", "y"}},
			want:     "http://localhost/?tag=x&tag=y",
		},
		{
			name:     "scalar query values",
			template: "http://localhost/",
			query:    map[string]any{"n": 3, "ok": true, "none": nil},
			want:     "http://localhost/?n=3&none=&ok=true",
		},
		{
			name:     "query marks stay unescaped",
			template: "http://localhost/",
			query:    map[string]any{"x": "it's(ok)!*~", "k y": "a+b=c/d?"},
			want:     "http://localhost/?k%20y=a%2Bb%3Dc%2Fd%3F&x=it's(ok)!*~",
		},
		{
			name:     "nested query values render empty",
			template: "http://localhost/",
			query:    map[string]any{"o": map[string]any{"a": 1}, "l": []any{"x", map[string]any{}}, "f": 1.5},
			want:     "http://localhost/?f=1.5&l=x&l=&o=",
		},
		{
			name:     "non-ascii query value",
			template: "http://localhost/",
			query:    map[string]any{"name": "café"},
			want:     "http://localhost/?name=caf%C3%A9",
		},
		{
			name:     "defaults",
			template: "http://localhost/",
			want:     "http://localhost/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Build(tt.template, tt.path, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuild_MalformedTemplate(t *testing.T) {
	t.Parallel()

	_, err := Build("http://localhost/{id", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExpansion)
}

func TestEncodeQuery_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, EncodeQuery(nil))
	assert.Empty(t, EncodeQuery(map[string]any{}))
}

func TestEscapeComponent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "plain-_.!~*'()", EscapeComponent("plain-_.!~*'()"))
	assert.Equal(t, "hello%20world", EscapeComponent("hello world"))
	assert.Equal(t, "%26%3D%2B%3F%2F%23%25", EscapeComponent("&=+?/#%"))
}
