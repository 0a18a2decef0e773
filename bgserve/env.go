package bgserve

import (
	"time"

	intervals "github.com/MawKKe/integer-interval-expressions-go"
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.uber.org/zap/zapcore"
)

// DefaultRequiredErrorStatusCodes are the status codes that the server itself produces for failures: unhandled
// errors and requests that ran out of time. BG_ERROR_STATUS_CODES must cover them.
var DefaultRequiredErrorStatusCodes = []int{500, 504}

// Environment defines the interface that all environment configurations must implement.
// Embed BaseEnvironment in your struct to satisfy this interface.
type Environment interface {
	port() int
	serviceName() string
	readinessCheckPath() string
	logLevel() zapcore.Level
	otelExporter() string
	errorStatusCodes() string
	maxBodySize() int64
	requestTimeout() time.Duration
	uploadBucket() string
	awsRegion() string
}

// BaseEnvironment contains the environment variables every bgserve app reads.
// Embed this in your custom environment struct.
type BaseEnvironment struct {
	Port               int           `env:"BG_PORT,required"`
	ServiceName        string        `env:"BG_SERVICE_NAME,required"`
	ReadinessCheckPath string        `env:"BG_READINESS_CHECK_PATH" envDefault:"/health"`
	LogLevel           zapcore.Level `env:"BG_LOG_LEVEL" envDefault:"info"`
	OtelExporter       string        `env:"BG_OTEL_EXPORTER" envDefault:"stdout"`
	// ErrorStatusCodes is an interval expression ("500-599", "500,502-504") of the statuses that are logged as
	// errors by the access log.
	ErrorStatusCodes string        `env:"BG_ERROR_STATUS_CODES" envDefault:"500-599"`
	MaxBodySize      int64         `env:"BG_MAX_BODY_SIZE" envDefault:"33554432"`
	RequestTimeout   time.Duration `env:"BG_REQUEST_TIMEOUT" envDefault:"30s"`
	// UploadBucket is the S3 bucket that uploads are persisted to. Without it, uploads are stored in a
	// directory below os.TempDir.
	UploadBucket string `env:"BG_UPLOAD_BUCKET"`
	AWSRegion    string `env:"AWS_REGION"`
}

func (e BaseEnvironment) port() int {
	return e.Port
}

func (e BaseEnvironment) serviceName() string {
	return e.ServiceName
}

func (e BaseEnvironment) readinessCheckPath() string {
	return e.ReadinessCheckPath
}

func (e BaseEnvironment) logLevel() zapcore.Level {
	return e.LogLevel
}

func (e BaseEnvironment) otelExporter() string {
	return e.OtelExporter
}

func (e BaseEnvironment) errorStatusCodes() string {
	return e.ErrorStatusCodes
}

func (e BaseEnvironment) maxBodySize() int64 {
	return e.MaxBodySize
}

func (e BaseEnvironment) requestTimeout() time.Duration {
	return e.RequestTimeout
}

func (e BaseEnvironment) uploadBucket() string {
	return e.UploadBucket
}

func (e BaseEnvironment) awsRegion() string {
	return e.AWSRegion
}

var _ Environment = BaseEnvironment{}

// ParseEnv parses environment variables into the given Environment type.
func ParseEnv[E Environment]() func() (E, error) {
	return func() (e E, err error) {
		if err := env.Parse(&e); err != nil {
			return e, errors.Wrap(err, "failed to parse environment")
		}

		if err := ValidateErrorStatusCodes(e.errorStatusCodes(), DefaultRequiredErrorStatusCodes...); err != nil {
			return e, errors.Wrap(err, "invalid BG_ERROR_STATUS_CODES")
		}

		if e.maxBodySize() <= 0 {
			return e, errors.Newf("invalid BG_MAX_BODY_SIZE: must be positive, got %d", e.maxBodySize())
		}

		return e, nil
	}
}

// ValidateErrorStatusCodes checks that the interval expression covers all the required status codes.
func ValidateErrorStatusCodes(expr string, required ...int) error {
	parsed, err := intervals.ParseExpression(expr)
	if err != nil {
		return errors.Wrapf(err, "failed to parse %q", expr)
	}

	missing := lo.Reject(required, func(code int, _ int) bool { return parsed.Matches(code) })
	if len(missing) > 0 {
		return errors.Newf("expression %q does not cover the required status codes, missing: %v "+
			"(recommended value: %q)", expr, missing, "500-599")
	}

	return nil
}

// errorStatusMatcher returns a function that reports whether a status is in the expression.
func errorStatusMatcher(expr string) (func(int) bool, error) {
	parsed, err := intervals.ParseExpression(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %q", expr)
	}

	return parsed.Matches, nil
}
