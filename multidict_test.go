package bgate_test

import (
	"testing"

	"github.com/advdv/bgate"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiDict(t *testing.T) {
	var d bgate.MultiDict[int]
	d.Add("b", 1)
	d.Add("a", 2)
	d.Add("b", 3)

	assert.Equal(t, []string{"b", "a"}, d.Keys())
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, []int{1, 3}, d.GetList("b"))
	assert.True(t, d.Has("a"))
	assert.False(t, d.Has("c"))

	v, ok := d.Get("b")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = d.Get("c")
	assert.False(t, ok)

	var pairs []string
	for k := range d.Pairs() {
		pairs = append(pairs, k)
	}
	assert.Equal(t, []string{"b", "b", "a"}, pairs)
}

func TestMultiDictToMap(t *testing.T) {
	q := bgate.ParseQuery("a=1&b=2&b=3&c[]=4")
	assert.Equal(t, map[string]any{
		"a": "1",
		"b": []string{"2", "3"},
		"c": []string{"4"},
	}, q.ToMap())
}

func TestParseQuery(t *testing.T) {
	t.Run("lenient", func(t *testing.T) {
		q := bgate.ParseQuery("a=1&&flag&b=%zz&c=x+y")
		assert.Equal(t, []string{"a", "flag", "b", "c"}, q.Keys())

		flag, ok := q.Get("flag")
		require.True(t, ok)
		assert.Empty(t, flag)

		b, _ := q.Get("b")
		assert.Equal(t, "%zz", b)
		c, _ := q.Get("c")
		assert.Equal(t, "x y", c)
	})

	t.Run("strict", func(t *testing.T) {
		q, err := bgate.ParseQueryStrict("a=1&b=&a=%20")
		require.NoError(t, err)
		assert.Equal(t, []string{"1", " "}, q.GetList("a"))

		b, ok := q.Get("b")
		require.True(t, ok)
		assert.Empty(t, b)

		_, err = bgate.ParseQueryStrict("a=1&flag")
		require.Error(t, err)
		assert.True(t, errors.Is(err, bgate.ErrMalformed))
		assert.Contains(t, err.Error(), "bad query field: 'flag'")

		_, err = bgate.ParseQueryStrict("a=%zz")
		require.Error(t, err)
	})

	t.Run("encode keeps the order", func(t *testing.T) {
		q := bgate.ParseQuery("z=1&a=x y&z=2")
		assert.Equal(t, "z=1&z=2&a=x+y", q.Encode())
	})
}

func TestQueryCasting(t *testing.T) {
	q := bgate.ParseQuery("yes=on&no=0&none=null&bad=maybe&n=42&f=1.5&s=abc")

	t.Run("require", func(t *testing.T) {
		_, err := q.Require("missing")
		require.Error(t, err)
		assert.Equal(t, bgate.CodeBadRequest, bgate.CodeOf(err))
		assert.Equal(t, "Bad Request: Missing 'missing' key", err.Error())
	})

	t.Run("bool", func(t *testing.T) {
		v, err := q.Bool("yes")
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.True(t, *v)

		v, err = q.Bool("no")
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.False(t, *v)

		v, err = q.Bool("none")
		require.NoError(t, err)
		assert.Nil(t, v)

		_, err = q.Bool("bad")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Wrong boolean value for 'bad=maybe'")
	})

	t.Run("numbers", func(t *testing.T) {
		n, err := q.Int("n")
		require.NoError(t, err)
		assert.Equal(t, 42, n)

		f, err := q.Float("f")
		require.NoError(t, err)
		assert.InDelta(t, 1.5, f, 0.0001)

		_, err = q.Int("s")
		require.Error(t, err)
		assert.Equal(t, bgate.CodeBadRequest, bgate.CodeOf(err))
		assert.Contains(t, err.Error(), "Key 's' must be castable to int")

		_, err = q.Float("s")
		require.Error(t, err)
	})
}
