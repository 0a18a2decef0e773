package pattern_test

import (
	"testing"

	"github.com/advdv/bgate/internal/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, tt := range []struct {
		in    string
		names []string
		err   string
	}{
		{in: "/"},
		{in: "/items/{id}", names: []string{"id"}},
		{in: "/files/{path...}", names: []string{"path"}},
		{in: "/blog/{year}/{slug}/{$}", names: []string{"year", "slug"}},
		{in: "", err: "empty pattern"},
		{in: "items", err: "must start with a slash"},
		{in: "/{a}/{a}", err: `duplicate wildcard name "a"`},
		{in: "/{}", err: "empty wildcard"},
		{in: "/{rest...}/x", err: "wildcard not at end"},
		{in: "/{$}/x", err: "{$} not at end"},
		{in: "/a{b}", err: "bad wildcard segment"},
		{in: "/{b", err: "bad wildcard segment"},
	} {
		t.Run(tt.in, func(t *testing.T) {
			p, err := pattern.Parse(tt.in)
			if tt.err != "" {
				require.ErrorContains(t, err, tt.err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.in, p.String())
			assert.Equal(t, tt.names, p.Names())
		})
	}
}

func TestMatch(t *testing.T) {
	for _, tt := range []struct {
		pat, path string
		ok        bool
		params    map[string]string
	}{
		{"/", "/", true, map[string]string{}},
		{"/", "/anything/below", true, map[string]string{}},
		{"/{$}", "/", true, map[string]string{}},
		{"/{$}", "/x", false, nil},
		{"/items/", "/items/", true, map[string]string{}},
		{"/items/", "/items", false, nil},
		{"/items/{id}", "/items/a%2Fb", true, map[string]string{"id": "a/b"}},
		{"/items/{id}", "/items/", false, nil},
		{"/items/{id}", "/items/1/2", false, nil},
		{"/files/{p...}", "/files/a/b", true, map[string]string{"p": "a/b"}},
		{"/files/{p...}", "/files", false, nil},
		{"/a/{b}/", "/a/x/y", true, map[string]string{"b": "x"}},
	} {
		t.Run(tt.pat+" "+tt.path, func(t *testing.T) {
			p, err := pattern.Parse(tt.pat)
			require.NoError(t, err)

			params, ok := p.Match(tt.path)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.params, params)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	p, err := pattern.Parse("/users/{id}/files/{path...}")
	require.NoError(t, err)

	res, err := p.Build("a b", "x/y.txt")
	require.NoError(t, err)
	assert.Equal(t, "/users/a%20b/files/x/y.txt", res)

	_, err = p.Build("1")
	require.ErrorContains(t, err, "not enough values")

	_, err = p.Build("1", "2", "3")
	require.ErrorContains(t, err, "too many values")

	sub, err := pattern.Parse("/docs/{lang}/")
	require.NoError(t, err)

	res, err = sub.Build("en")
	require.NoError(t, err)
	assert.Equal(t, "/docs/en/", res)
}

func TestMoreSpecific(t *testing.T) {
	parse := func(s string) *pattern.Pattern {
		p, err := pattern.Parse(s)
		require.NoError(t, err)
		return p
	}

	for _, tt := range []struct{ a, b string }{
		{"/users/me", "/users/{id}"},
		{"/users/{id}", "/{rest...}"},
		{"/users/{id}", "/users/"},
		{"/users", "/users/"},
		{"/users/", "/"},
	} {
		assert.True(t, pattern.MoreSpecific(parse(tt.a), parse(tt.b)), "%s over %s", tt.a, tt.b)
		assert.False(t, pattern.MoreSpecific(parse(tt.b), parse(tt.a)), "%s over %s", tt.b, tt.a)
	}
}
