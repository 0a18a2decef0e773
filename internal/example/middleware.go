// Package example implements example middleware in an outside package.
package example

import (
	"context"

	"github.com/advdv/bgate"
	"go.uber.org/zap"
)

// ctxKey type scopes middlware values.
type ctxKey string

// Middleware provides an example for middleware that adds a logger to the context.
func Middleware(logs *zap.Logger) bgate.Middleware {
	return func(n bgate.Handler) bgate.Handler {
		return bgate.HandlerFunc(func(c context.Context, r *bgate.Request) (*bgate.Response, error) {
			logs := logs.With(zap.String("method", r.Method()), zap.String("path", r.Path()))
			c = context.WithValue(c, ctxKey("zap"), logs)

			return n.ServeRequest(c, r)
		})
	}
}

// Log returns the logger that was added by the middleware, or a no-op logger.
func Log(ctx context.Context) *zap.Logger {
	v, ok := ctx.Value(ctxKey("zap")).(*zap.Logger)
	if !ok {
		return zap.NewNop()
	}

	return v
}
