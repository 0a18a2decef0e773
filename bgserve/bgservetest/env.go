package bgservetest

import (
	"strconv"
	"testing"
)

// Env provides a chainable builder for setting [bgserve.BaseEnvironment] env vars
// via t.Setenv. Create one with [SetBaseEnv].
type Env struct {
	t testing.TB
}

// SetBaseEnv sets all [bgserve.BaseEnvironment] env vars to sensible test defaults.
// Port is required because each test must use a unique port to avoid collisions.
//
// Defaults:
//   - BG_SERVICE_NAME: "test"
//   - BG_READINESS_CHECK_PATH: "/health"
//   - BG_OTEL_EXPORTER: "none"
//   - BG_ERROR_STATUS_CODES: "500-599"
//   - BG_REQUEST_TIMEOUT: "5s"
//   - BG_UPLOAD_BUCKET: ""
//   - AWS_REGION: "us-east-1"
//   - AWS_ACCESS_KEY_ID: "test"
//   - AWS_SECRET_ACCESS_KEY: "test"
//
// Use the returned [Env] to override individual values:
//
//	bgservetest.SetBaseEnv(t, 18085).ServiceName("orders").MaxBodySize(1024)
func SetBaseEnv(t testing.TB, port int) *Env {
	t.Helper()
	t.Setenv("BG_PORT", strconv.Itoa(port))
	t.Setenv("BG_SERVICE_NAME", "test")
	t.Setenv("BG_READINESS_CHECK_PATH", "/health")
	t.Setenv("BG_OTEL_EXPORTER", "none")
	t.Setenv("BG_ERROR_STATUS_CODES", "500-599")
	t.Setenv("BG_REQUEST_TIMEOUT", "5s")
	t.Setenv("BG_UPLOAD_BUCKET", "")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	return &Env{t: t}
}

// ServiceName overrides BG_SERVICE_NAME.
func (e *Env) ServiceName(name string) *Env {
	e.t.Helper()
	e.t.Setenv("BG_SERVICE_NAME", name)
	return e
}

// ReadinessCheckPath overrides BG_READINESS_CHECK_PATH.
func (e *Env) ReadinessCheckPath(path string) *Env {
	e.t.Helper()
	e.t.Setenv("BG_READINESS_CHECK_PATH", path)
	return e
}

// ErrorStatusCodes overrides BG_ERROR_STATUS_CODES.
func (e *Env) ErrorStatusCodes(expr string) *Env {
	e.t.Helper()
	e.t.Setenv("BG_ERROR_STATUS_CODES", expr)
	return e
}

// MaxBodySize overrides BG_MAX_BODY_SIZE.
func (e *Env) MaxBodySize(n int64) *Env {
	e.t.Helper()
	e.t.Setenv("BG_MAX_BODY_SIZE", strconv.FormatInt(n, 10))
	return e
}

// RequestTimeout overrides BG_REQUEST_TIMEOUT.
func (e *Env) RequestTimeout(d string) *Env {
	e.t.Helper()
	e.t.Setenv("BG_REQUEST_TIMEOUT", d)
	return e
}

// UploadBucket overrides BG_UPLOAD_BUCKET.
func (e *Env) UploadBucket(bucket string) *Env {
	e.t.Helper()
	e.t.Setenv("BG_UPLOAD_BUCKET", bucket)
	return e
}
