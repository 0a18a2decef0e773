package bgate_test

import (
	"testing"

	"github.com/advdv/bgate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverser(t *testing.T) {
	rev := bgate.NewReverser()
	assert.Equal(t, "/{$}", rev.Named("homepage", "/{$}"))
	assert.Equal(t, "/files/{path...}", rev.Named("file", "/files/{path...}"))

	s, err := rev.NamedPattern("blog_post", "/blog/{year}/{slug}/")
	require.NoError(t, err)
	assert.Equal(t, "/blog/{year}/{slug}/", s)

	assert.Equal(t, []string{"blog_post", "file", "homepage"}, rev.Names())

	for _, tt := range []struct {
		name string
		vals []string
		exp  string
		err  string
	}{
		{name: "homepage", exp: "/"},
		{name: "blog_post", vals: []string{"2024", "hello world"}, exp: "/blog/2024/hello%20world/"},
		{name: "blog_post", vals: []string{"2024", "a/b"}, exp: "/blog/2024/a%2Fb/"},
		{name: "file", vals: []string{"docs/readme.md"}, exp: "/files/docs/readme.md"},
		{name: "blog_post", vals: []string{"2024"}, err: `failed to build "blog_post": not enough values`},
		{name: "homepage", vals: []string{"x"}, err: "too many values"},
		{name: "bogus", err: `no pattern named: "bogus", got: [blog_post file homepage]`},
	} {
		t.Run(tt.name+" "+tt.exp, func(t *testing.T) {
			res, err := rev.Reverse(tt.name, tt.vals...)
			if tt.err != "" {
				require.ErrorContains(t, err, tt.err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.exp, res)
		})
	}

	t.Run("errors when the name is taken", func(t *testing.T) {
		_, err := rev.NamedPattern("homepage", "/")
		require.ErrorContains(t, err, `pattern with name "homepage" already exists`)
	})

	t.Run("panics when naming an invalid pattern", func(t *testing.T) {
		assert.PanicsWithValue(t, "bgate: failed to parse pattern: empty pattern", func() {
			rev.Named("bogus", "")
		})
	})
}
