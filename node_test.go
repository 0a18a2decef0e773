package bgate_test

import (
	"context"
	"iter"
	"sync/atomic"
	"testing"

	"github.com/advdv/bgate"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handlerApp(f bgate.HandlerFunc) bgate.Resolver {
	return bgate.ResolverFunc(func(string, *bgate.Environ) (bgate.Application, error) {
		return bgate.ToApplication(f), nil
	})
}

func TestNode(t *testing.T) {
	t.Run("answers errors with their response", func(t *testing.T) {
		logs := bgate.NewTestLogger(t)
		node := bgate.NewNode(handlerApp(func(context.Context, *bgate.Request) (*bgate.Response, error) {
			return nil, errors.Wrap(bgate.NewError(bgate.CodeForbidden, errors.New("go away")), "check")
		}), bgate.WithLogger(logs))

		status, headers, body := serve(t, node, testEnv(t, "GET", "/"))
		assert.Equal(t, "403 Forbidden", status)
		assert.Equal(t, "go away", body)
		assert.Equal(t, "7", headers.Get("Content-Length"))
		assert.Equal(t, int64(0), logs.NumLogUnhandledError)
	})

	t.Run("reports unexpected errors", func(t *testing.T) {
		logs := bgate.NewTestLogger(t)
		node := bgate.NewNode(handlerApp(func(context.Context, *bgate.Request) (*bgate.Response, error) {
			return nil, errors.New("database down")
		}), bgate.WithLogger(logs))

		_, err := node.ServeGateway(testEnv(t, "GET", "/"), func(string, []bgate.HeaderPair) error { return nil })
		require.ErrorContains(t, err, "database down")
		assert.Equal(t, int64(1), logs.NumLogUnhandledError)
	})

	t.Run("a nil response is unexpected", func(t *testing.T) {
		logs := bgate.NewTestLogger(t)
		node := bgate.NewNode(handlerApp(func(context.Context, *bgate.Request) (*bgate.Response, error) {
			return nil, nil
		}), bgate.WithLogger(logs))

		_, err := node.ServeGateway(testEnv(t, "GET", "/"), func(string, []bgate.HeaderPair) error { return nil })
		require.ErrorContains(t, err, "handler returned no response and no error")
	})

	t.Run("nested nodes report once", func(t *testing.T) {
		logs := bgate.NewTestLogger(t)
		inner := bgate.NewNode(handlerApp(func(context.Context, *bgate.Request) (*bgate.Response, error) {
			return nil, errors.New("boom")
		}), bgate.WithLogger(logs))

		outer := bgate.NewMapping(bgate.WithLogger(logs))
		outer.MustSet("/", inner)

		_, err := outer.ServeGateway(testEnv(t, "GET", "/x"), func(string, []bgate.HeaderPair) error { return nil })
		require.Error(t, err)
		assert.Equal(t, int64(1), logs.NumLogUnhandledError)
	})

	t.Run("errors after starting are not answered", func(t *testing.T) {
		logs := bgate.NewTestLogger(t)
		node := bgate.NewNode(bgate.ResolverFunc(func(string, *bgate.Environ) (bgate.Application, error) {
			return bgate.ApplicationFunc(func(_ *bgate.Environ, start bgate.StartResponse) (bgate.Result, error) {
				if err := start("200 OK", nil); err != nil {
					return nil, err
				}
				return nil, bgate.NewError(bgate.CodeConflict, nil)
			}), nil
		}), bgate.WithLogger(logs))

		var starts int
		_, err := node.ServeGateway(testEnv(t, "GET", "/"), func(string, []bgate.HeaderPair) error {
			starts++
			return nil
		})
		require.Error(t, err)
		assert.Equal(t, 1, starts)
		assert.Equal(t, int64(1), logs.NumLogUnhandledError)
	})

	t.Run("resolver errors", func(t *testing.T) {
		node := bgate.NewNode(bgate.ResolverFunc(func(string, *bgate.Environ) (bgate.Application, error) {
			return nil, bgate.Errorf(bgate.CodeBadRequest, "weird path")
		}), bgate.WithLogger(bgate.NewTestLogger(t)))

		status, _, body := serve(t, node, testEnv(t, "GET", "/"))
		assert.Equal(t, "400 Bad Request", status)
		assert.Equal(t, "weird path", body)
	})

	t.Run("resolves the normalized decoded path", func(t *testing.T) {
		var got string
		node := bgate.NewNode(bgate.ResolverFunc(func(p string, _ *bgate.Environ) (bgate.Application, error) {
			got = p
			return nil, nil
		}))

		status, _, _ := serve(t, node, testEnv(t, "GET", "//a///é"))
		assert.Equal(t, "404 Not Found", status)
		assert.Equal(t, "/a/é", got)
	})
}

type closeTracker struct {
	closed atomic.Int32
	err    error
}

func (c *closeTracker) Chunks() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) { yield([]byte("ok"), nil) }
}

func (c *closeTracker) Close() error {
	c.closed.Add(1)
	return c.err
}

func TestNodeClose(t *testing.T) {
	t.Run("reports close errors once", func(t *testing.T) {
		logs := bgate.NewTestLogger(t)
		res := &closeTracker{err: errors.New("close failed")}
		inner := bgate.NewNode(bgate.ResolverFunc(func(string, *bgate.Environ) (bgate.Application, error) {
			return bgate.ApplicationFunc(func(_ *bgate.Environ, start bgate.StartResponse) (bgate.Result, error) {
				return res, start("200 OK", nil)
			}), nil
		}), bgate.WithLogger(logs))

		outer := bgate.NewMapping(bgate.WithLogger(logs))
		outer.MustSet("/", inner)

		_, _, body, err := serveErr(t, outer, testEnv(t, "GET", "/"))
		require.ErrorContains(t, err, "close failed")
		assert.Equal(t, "ok", body)
		assert.Equal(t, int32(1), res.closed.Load())
		assert.Equal(t, int64(1), logs.NumLogCloseError)
	})

	t.Run("closes partial results of failed applications", func(t *testing.T) {
		logs := bgate.NewTestLogger(t)
		res := &closeTracker{}
		node := bgate.NewNode(bgate.ResolverFunc(func(string, *bgate.Environ) (bgate.Application, error) {
			return bgate.ApplicationFunc(func(*bgate.Environ, bgate.StartResponse) (bgate.Result, error) {
				return res, bgate.NewError(bgate.CodeGone, nil)
			}), nil
		}), bgate.WithLogger(logs))

		status, _, body := serve(t, node, testEnv(t, "GET", "/"))
		assert.Equal(t, "410 Gone", status)
		assert.Equal(t, "URI no longer exists and has been permanently removed", body)
		assert.Equal(t, int32(1), res.closed.Load())
	})
}

// serveErr is like serve but returns the error of consuming the result.
func serveErr(tb testing.TB, app bgate.Application, env *bgate.Environ) (string, []bgate.HeaderPair, string, error) {
	tb.Helper()

	var (
		status  string
		headers []bgate.HeaderPair
	)

	res, err := app.ServeGateway(env, func(s string, h []bgate.HeaderPair) error {
		status, headers = s, h
		return nil
	})
	if err != nil {
		return status, headers, "", err
	}

	body, err := collect(res)

	return status, headers, body, err
}
