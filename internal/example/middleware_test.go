package example_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advdv/bgate"
	"github.com/advdv/bgate/internal/example"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMiddleware(t *testing.T) {
	core, obs := observer.New(zapcore.DebugLevel)

	rt := bgate.NewRouter()
	rt.Use(example.Middleware(zap.New(core)))
	rt.HandleFunc("GET /hello/{name}", func(ctx context.Context, r *bgate.Request) (*bgate.Response, error) {
		example.Log(ctx).Info("greeting", zap.String("name", r.Param("name")))
		return bgate.NewResponse(bgate.CodeOK, "hello")
	})

	rec := httptest.NewRecorder()
	bgate.ToStd(rt, bgate.NewTestLogger(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello/world", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	entries := obs.FilterMessage("greeting").All()
	require.Len(t, entries, 1)
	assert.Equal(t, map[string]any{
		"method": "GET",
		"path":   "/hello/world",
		"name":   "world",
	}, entries[0].ContextMap())
}

func TestLogWithoutMiddleware(t *testing.T) {
	assert.NotPanics(t, func() {
		example.Log(t.Context()).Info("dropped")
	})
}
