package bgserve

import (
	"context"
	"net/http"

	"github.com/advdv/bgate"
	"github.com/carlmjohnson/requests"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Runtime provides access to app-scoped dependencies.
// Inject this into handler constructors via fx instead of pulling from context.
//
// Example:
//
//	type Handlers struct {
//	    rt *bgserve.Runtime[Env]
//	}
//
//	func NewHandlers(rt *bgserve.Runtime[Env]) *Handlers {
//	    return &Handlers{rt: rt}
//	}
//
//	func (h *Handlers) Upload(ctx context.Context, r *bgate.Request) (*bgate.Response, error) {
//	    data, err := r.Data()
//	    if err != nil {
//	        return nil, err
//	    }
//
//	    stored, err := h.rt.Persist(ctx, data.Files.GetList("file")...)
//	    // ...
//	}
type Runtime[E Environment] struct {
	env       E
	router    *bgate.Router
	store     bgate.UploadStore
	secrets   SecretReader
	transport http.RoundTripper
}

// RuntimeParams holds optional dependencies for Runtime.
type RuntimeParams struct {
	Store     bgate.UploadStore
	Secrets   SecretReader
	Transport http.RoundTripper
}

// NewRuntime creates a new Runtime with the given dependencies.
func NewRuntime[E Environment](env E, router *bgate.Router, params RuntimeParams) *Runtime[E] {
	if params.Transport == nil {
		params.Transport = http.DefaultTransport
	}

	return &Runtime[E]{
		env:       env,
		router:    router,
		store:     params.Store,
		secrets:   params.Secrets,
		transport: params.Transport,
	}
}

// Env returns the environment configuration.
func (r *Runtime[E]) Env() E {
	return r.env
}

// Reverse returns the URL for a named route with the given parameters.
// The route must have been registered with a name using Handle/HandleFunc.
func (r *Runtime[E]) Reverse(name string, params ...string) (string, error) {
	return r.router.Reverse(name, params...)
}

// Persist stores uploaded files in the configured upload store, see [bgate.Persist].
func (r *Runtime[E]) Persist(ctx context.Context, files ...*bgate.FileUpload) ([]bgate.StoredUpload, error) {
	return bgate.Persist(ctx, r.store, files...)
}

// Secret reads a secret. An optional gjson path selects a single value from a secret that holds JSON, e.g:
// rt.Secret(ctx, "catalog-api", "token").
func (r *Runtime[E]) Secret(ctx context.Context, secretID string, path ...string) (string, error) {
	return readSecret(ctx, r.secrets, secretID, path...)
}

// NewRequest returns a request builder for the url. Calls go through the outbound transport, so they are traced as
// children of the current span, and identify themselves with the service name.
func (r *Runtime[E]) NewRequest(url string) *requests.Builder {
	return requests.New().
		Transport(r.transport).
		BaseURL(url).
		UserAgent(r.env.serviceName())
}

// NewOutboundTransport returns the transport for calls to other services. Client spans are named after the method
// and host, e.g: "GET catalog.internal", and carry the trace context in the propagator's headers.
func NewOutboundTransport(tp trace.TracerProvider, prop propagation.TextMapPropagator) http.RoundTripper {
	return otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithPropagators(prop),
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Host
		}),
	)
}
