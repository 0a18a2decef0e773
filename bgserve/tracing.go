package bgserve

import (
	"context"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/advdv/bgate"
	"github.com/aws-observability/aws-otel-go/exporters/xrayudp"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/detectors/aws/lambda"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

// Exporters that BG_OTEL_EXPORTER accepts.
const (
	exporterStdout  = "stdout"
	exporterXRayUDP = "xrayudp"
	exporterNone    = "none"
)

// lambdaFunctionVar is set by the Lambda runtime.
const lambdaFunctionVar = "AWS_LAMBDA_FUNCTION_NAME"

const tracingInitTimeout = 5 * time.Second

// NewTracerProvider builds the tracer provider for the exporter that BG_OTEL_EXPORTER names. The provider is shut
// down with the app, which flushes the spans it still holds.
func NewTracerProvider(lc fx.Lifecycle, env Environment) (trace.TracerProvider, error) {
	ctx, cancel := context.WithTimeout(context.Background(), tracingInitTimeout)
	defer cancel()

	exporter := env.otelExporter()
	pipeline, err := spanPipeline(ctx, exporter)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx, exporter, env.serviceName())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(append(pipeline, sdktrace.WithResource(res))...)
	lc.Append(fx.StopHook(tp.Shutdown))

	return tp, nil
}

// NewPropagator returns the X-Ray propagator for the xrayudp exporter, and W3C trace context with baggage for all
// other exporters.
func NewPropagator(env Environment) propagation.TextMapPropagator {
	if env.otelExporter() == exporterXRayUDP {
		return xray.Propagator{}
	}

	return propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
}

// spanPipeline returns the provider options that ship spans to the exporter. Spans of the "none" exporter are
// recorded but never leave the process.
func spanPipeline(ctx context.Context, exporter string) ([]sdktrace.TracerProviderOption, error) {
	switch exporter {
	case exporterStdout, "":
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, errors.Wrap(err, "create stdout exporter")
		}

		return []sdktrace.TracerProviderOption{sdktrace.WithSyncer(exp)}, nil
	case exporterXRayUDP:
		exp, err := xrayudp.NewSpanExporter(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "create xray udp exporter")
		}

		return []sdktrace.TracerProviderOption{
			sdktrace.WithSyncer(exp),
			sdktrace.WithIDGenerator(xray.NewIDGenerator()),
		}, nil
	case exporterNone:
		return nil, nil
	default:
		return nil, errors.Newf("unsupported BG_OTEL_EXPORTER: %q (supported: stdout, xrayudp, none)", exporter)
	}
}

// newResource names the service on every span. Spans for X-Ray also describe the Lambda function the process runs
// in, if any.
func newResource(ctx context.Context, exporter, serviceName string) (*resource.Resource, error) {
	res := resource.NewSchemaless(semconv.ServiceName(serviceName))
	if exporter != exporterXRayUDP || os.Getenv(lambdaFunctionVar) == "" {
		return res, nil
	}

	detected, err := lambda.NewResourceDetector().Detect(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "detect lambda resource")
	}

	return resource.Merge(detected, res)
}

// withTracing starts a server span for every request outside the excluded paths. Spans are named after the method
// only; [withRouteSpan] adds the route once the router matched one.
func withTracing(
	tp trace.TracerProvider, prop propagation.TextMapPropagator, serviceName string, exclude ...string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName,
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithPropagators(prop),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string { return r.Method }),
			otelhttp.WithFilter(func(r *http.Request) bool { return !slices.Contains(exclude, r.URL.Path) }),
		)
	}
}

// withRouteSpan names the server span after the matched route, e.g: "GET /items/{id}", and records the route on it.
func withRouteSpan() bgate.Middleware {
	return func(next bgate.Handler) bgate.Handler {
		return bgate.HandlerFunc(func(ctx context.Context, r *bgate.Request) (*bgate.Response, error) {
			if route := r.Route(); route != "" {
				span := trace.SpanFromContext(ctx)
				span.SetName(r.Method() + " " + route)
				span.SetAttributes(semconv.HTTPRoute(route))
			}

			return next.ServeRequest(ctx, r)
		})
	}
}
