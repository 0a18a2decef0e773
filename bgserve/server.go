package bgserve

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/advdv/bgate"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ServerConfig holds optional configuration for the HTTP server.
type ServerConfig struct {
	HealthHandler func(http.ResponseWriter, *http.Request)
}

// ServerParams holds the dependencies for creating an HTTP server.
type ServerParams struct {
	fx.In

	Env        Environment
	Router     *bgate.Router
	Logger     *zap.Logger
	GateLogger bgate.Logger
	TracerProv trace.TracerProvider
	Propagator propagation.TextMapPropagator
}

// NewServer creates an HTTP server with all middleware and routing configured.
func NewServer(params ServerParams, cfg ServerConfig) (*http.Server, error) {
	isError, err := errorStatusMatcher(params.Env.errorStatusCodes())
	if err != nil {
		return nil, err
	}

	params.Router.Use(withRouteSpan(), withLimitErrors())

	// The health check is served next to the router so it is not traced, and does not end up in the router's
	// named routes. The handler can be customized via ServerConfig.HealthHandler; defaults to 200 OK.
	healthPath := params.Env.readinessCheckPath()
	healthHandler := cfg.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}

	app := bgate.ToStd(params.Router, params.GateLogger)
	handler := http.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == healthPath {
			healthHandler(w, r)
			return
		}

		app.ServeHTTP(w, r)
	}))

	handler = withLimits(params.Env.maxBodySize(), params.Env.requestTimeout())(handler)
	handler = withRequestDep(params.Logger)(handler)
	handler = withAccessLog(params.Logger, isError)(handler)

	// Add tracing with explicit provider injection (no globals).
	handler = withTracing(params.TracerProv, params.Propagator, params.Env.serviceName(), healthPath)(handler)

	readTimeout := params.Env.requestTimeout()
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", params.Env.port()),
		Handler:           handler,
		ReadHeaderTimeout: min(readTimeout, 10*time.Second),
		ReadTimeout:       readTimeout,
		WriteTimeout:      readTimeout + 5*time.Second,
		IdleTimeout:       2 * readTimeout,
	}, nil
}

// withRequestDep injects the request-scoped logger into the request context.
func withRequestDep(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithRequestLogger(r.Context(), logger)))
		})
	}
}

// withLimits bounds the size of request bodies and the time handlers get to produce a response.
func withLimits(maxBody int64, timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// withLimitErrors answers errors caused by the limits of [withLimits] with a 413 or 504 instead of
// reporting them as unexpected.
func withLimitErrors() bgate.Middleware {
	return func(next bgate.Handler) bgate.Handler {
		return bgate.HandlerFunc(func(ctx context.Context, r *bgate.Request) (*bgate.Response, error) {
			resp, err := next.ServeRequest(ctx, r)
			if err == nil {
				return resp, nil
			}

			if maxErr := (*http.MaxBytesError)(nil); errors.As(err, &maxErr) {
				return nil, bgate.Errorf(bgate.CodeRequestEntityTooLarge, "request body exceeds %d bytes", maxErr.Limit)
			}

			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
				return nil, bgate.NewError(bgate.CodeGatewayTimeout, nil)
			}

			return nil, err
		})
	}
}

// startServerHook registers lifecycle hooks for the HTTP server.
func startServerHook(lc fx.Lifecycle, server *http.Server, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting server", zap.String("addr", server.Addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping server")
			return server.Shutdown(ctx)
		},
	})
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
