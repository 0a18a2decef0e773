package bgserve

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/advdv/bgate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestRuntimeNewRequest(t *testing.T) {
	var traceparent, agent string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent, agent = r.Header.Get("Traceparent"), r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(upstream.Close)

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	rt := NewRuntime(testEnv{}, bgate.NewRouter(), RuntimeParams{
		Transport: NewOutboundTransport(tp, propagation.TraceContext{}),
	})

	ctx, parent := tp.Tracer("test").Start(t.Context(), "handler")
	require.NoError(t, rt.NewRequest(upstream.URL).Path("/catalog").Fetch(ctx))
	parent.End()

	assert.Equal(t, "test", agent)
	assert.Contains(t, traceparent, parent.SpanContext().TraceID().String())

	u, err := url.Parse(upstream.URL)
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "GET "+u.Host, spans[0].Name())
	assert.Equal(t, parent.SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestNewRuntimeDefaultTransport(t *testing.T) {
	rt := NewRuntime(testEnv{}, bgate.NewRouter(), RuntimeParams{})
	assert.Equal(t, http.DefaultTransport, rt.transport)
}
