// Package bgserve provides a batteries-included server for bgate applications.
//
// # Overview
//
// bgserve handles the boilerplate of serving a [bgate.Router] over HTTP: environment parsing, structured
// logging, OpenTelemetry tracing, request limits, upload storage and graceful shutdown. A complete
// application can be created in a single call:
//
//	bgserve.NewApp[Env](func(rt *bgate.Router, h *Handlers) {
//	    rt.HandleFunc("GET /items/{id}", h.GetItem, "get-item")
//	    rt.HandleFunc("POST /uploads", h.Upload)
//	},
//	    bgserve.WithFx(fx.Provide(NewHandlers)),
//	).Run()
//
// # Environment Configuration
//
// Define your environment by embedding [BaseEnvironment]:
//
//	type Env struct {
//	    bgserve.BaseEnvironment
//	    CatalogURL string `env:"CATALOG_URL,required"`
//	}
//
// BaseEnvironment provides the following environment variables:
//
//	| Variable                 | Required | Default  | Description                                           |
//	|--------------------------|----------|----------|-------------------------------------------------------|
//	| BG_PORT                  | Yes      | -        | Port the HTTP server listens on                       |
//	| BG_SERVICE_NAME          | Yes      | -        | Service name for logging, tracing and upload prefixes |
//	| BG_READINESS_CHECK_PATH  | No       | /health  | Health check endpoint path                            |
//	| BG_LOG_LEVEL             | No       | info     | Log level (debug, info, warn, error)                  |
//	| BG_OTEL_EXPORTER         | No       | stdout   | Trace exporter: "stdout", "xrayudp" or "none"         |
//	| BG_ERROR_STATUS_CODES    | No       | 500-599  | Statuses the access log reports at the error level    |
//	| BG_MAX_BODY_SIZE         | No       | 33554432 | Maximum size of a request body in bytes               |
//	| BG_REQUEST_TIMEOUT       | No       | 30s      | Time a handler gets to produce its response           |
//	| BG_UPLOAD_BUCKET         | No       | -        | S3 bucket that [Runtime.Persist] stores uploads in    |
//	| AWS_REGION               | No       | -        | AWS region for the AWS SDK clients                    |
//
// BG_ERROR_STATUS_CODES is an interval expression such as "500,502-504" or "500-". It must cover the
// statuses in [DefaultRequiredErrorStatusCodes].
//
// # Runtime
//
// [Runtime] provides access to app-scoped dependencies and should be injected into handler constructors
// via fx:
//   - [Runtime.Env] returns the typed environment configuration
//   - [Runtime.Reverse] generates URLs for named routes
//   - [Runtime.Persist] stores uploaded files, de-duplicated by content
//   - [Runtime.NewRequest] builds traced outbound requests that carry the service name as user agent
//   - [Runtime.Secret] reads a secret from AWS Secrets Manager, optionally a single value at a gjson path
//
// # Context
//
// Handlers receive a standard context.Context. Use the package-level functions to access request-scoped
// values:
//
//	func (h *Handlers) GetItem(ctx context.Context, r *bgate.Request) (*bgate.Response, error) {
//	    bgserve.Log(ctx).Info("fetching item", zap.String("id", r.Param("id")))
//	    bgserve.Span(ctx).AddEvent("fetching item")
//	    // ...
//	}
//
// # Limits
//
// Request bodies are limited to BG_MAX_BODY_SIZE and the request context expires after BG_REQUEST_TIMEOUT.
// Handler errors caused by these limits are answered with a 413 and 504 respectively.
//
// # Tracing
//
// OpenTelemetry tracing is configured automatically based on BG_OTEL_EXPORTER:
//
//   - "stdout" (default): Pretty-printed spans for local development
//   - "xrayudp": X-Ray UDP exporter with X-Ray trace IDs and propagation
//   - "none": spans are created but not exported
//
// The tracer provider and propagator are injected explicitly (no globals). The health check path is
// never traced. Server spans are named after the method and the route the router matched, e.g:
// "GET /items/{id}". On Lambda, xrayudp spans also carry the function's resource attributes.
package bgserve
