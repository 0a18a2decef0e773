package bgate

import (
	"context"
	"io"
	"iter"
	"strings"
)

// Well known environ variables.
const (
	KeyRequestMethod = "REQUEST_METHOD"
	KeyScriptName    = "SCRIPT_NAME"
	KeyPathInfo      = "PATH_INFO"
	KeyQueryString   = "QUERY_STRING"
	KeyContentType   = "CONTENT_TYPE"
	KeyContentLength = "CONTENT_LENGTH"
	KeyServerName    = "SERVER_NAME"
	KeyServerPort    = "SERVER_PORT"
	KeyServerProto   = "SERVER_PROTOCOL"
	KeyRemoteAddr    = "REMOTE_ADDR"
	KeyHTTPHost      = "HTTP_HOST"
	KeyHTTPCookie    = "HTTP_COOKIE"
	KeyHTTPAccept    = "HTTP_ACCEPT"
	KeyURLScheme     = "wsgi.url_scheme"

	// KeyRoute holds the route patterns that routers matched, joined from the outermost router inwards.
	KeyRoute = "bgate.route"
)

// Environ is the raw environment of a single inbound request, as handed over by the server. Variables follow the
// CGI naming: request headers are upper-cased, prefixed with "HTTP_" and have dashes replaced by underscores.
// PATH_INFO holds the path with each byte transported as a latin-1 code point, see [EncodePathInfo].
type Environ struct {
	Vars   map[string]string
	Body   io.Reader
	Params map[string]string

	ctx context.Context
}

// NewEnviron inits an environment. A nil body reads as empty.
func NewEnviron(ctx context.Context, vars map[string]string, body io.Reader) *Environ {
	if vars == nil {
		vars = map[string]string{}
	}
	if body == nil {
		body = strings.NewReader("")
	}

	return &Environ{Vars: vars, Body: body, ctx: ctx}
}

// Context returns the request's context.
func (e *Environ) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}

	return e.ctx
}

// WithContext returns a shallow copy of the environment with its context changed. Both copies share their
// variables.
func (e *Environ) WithContext(ctx context.Context) *Environ {
	e2 := *e
	e2.ctx = ctx

	return &e2
}

// Get returns the variable, or an empty string.
func (e *Environ) Get(key string) string {
	return e.Vars[key]
}

// Lookup returns the variable and whether it is set.
func (e *Environ) Lookup(key string) (string, bool) {
	v, ok := e.Vars[key]
	return v, ok
}

// Set sets the variable.
func (e *Environ) Set(key, value string) {
	if e.Vars == nil {
		e.Vars = map[string]string{}
	}

	e.Vars[key] = value
}

// Header returns a request header by its http name.
func (e *Environ) Header(name string) string {
	return e.Vars[HeaderKey(name)]
}

// HeaderKey returns the variable name of a request header, e.g: "X-Foo" becomes "HTTP_X_FOO".
func HeaderKey(name string) string {
	key := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	if key == KeyContentType || key == KeyContentLength {
		return key
	}

	return "HTTP_" + key
}

// StartResponse is called by an [Application] with the status line and the header lines, before it produces the
// body.
type StartResponse func(status string, headers []HeaderPair) error

// Result produces the response body of an [Application]. A result that implements io.Closer must be closed once
// the body was consumed, or when it is abandoned.
type Result interface {
	Chunks() iter.Seq2[[]byte, error]
}

// Application is the callable interface that serves a single request. It calls start exactly once before
// returning a result.
type Application interface {
	ServeGateway(env *Environ, start StartResponse) (Result, error)
}

// ApplicationFunc allows a function to implement [Application].
type ApplicationFunc func(env *Environ, start StartResponse) (Result, error)

// ServeGateway implements the [Application] interface.
func (f ApplicationFunc) ServeGateway(env *Environ, start StartResponse) (Result, error) {
	return f(env, start)
}

// closeResult closes the result when it is closable.
func closeResult(res Result) error {
	if c, ok := res.(io.Closer); ok {
		return c.Close()
	}

	return nil
}
