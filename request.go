package bgate

import (
	"context"
	"io"
	"net/url"
	"strings"
)

// Field names a memoized value of a [Request].
type Field int

const (
	FieldMethod Field = iota
	FieldPath
	FieldScriptName
	FieldQuery
	FieldCookies
	FieldContentType
	FieldApplicationURI
	FieldData
	numFields
)

// RequestOption configures a request.
type RequestOption func(*Request)

// WithRegistry sets the parser registry used for the request body.
func WithRegistry(reg *Registry) RequestOption {
	return func(r *Request) { r.registry = reg }
}

// Request is a read-only view over an [Environ]. Each of its values is computed on first access and memoized
// until it is invalidated. It cannot wrap another Request, only an environment.
type Request struct {
	env      *Environ
	registry *Registry
	ctx      context.Context

	cached [numFields]bool

	method      string
	path        string
	scriptName  string
	query       *Query
	cookies     *Cookies
	contentType *ContentType
	appURI      string
	data        *Data
	dataErr     error
	ctErr       error
}

// NewRequest wraps the environment.
func NewRequest(env *Environ, opts ...RequestOption) *Request {
	r := &Request{env: env, registry: DefaultRegistry, ctx: env.Context()}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Environ returns the wrapped environment.
func (r *Request) Environ() *Environ { return r.env }

// Context returns the context of the request.
func (r *Request) Context() context.Context { return r.ctx }

// Get returns an environment variable.
func (r *Request) Get(key string) string { return r.env.Get(key) }

// Lookup returns an environment variable and whether it is set.
func (r *Request) Lookup(key string) (string, bool) { return r.env.Lookup(key) }

// Header returns a request header.
func (r *Request) Header(name string) string { return r.env.Header(name) }

// Body returns the raw body stream.
func (r *Request) Body() io.Reader { return r.env.Body }

// Params returns the path parameters captured by routing.
func (r *Request) Params() map[string]string { return r.env.Params }

// Param returns a single path parameter.
func (r *Request) Param(name string) string { return r.env.Params[name] }

// Route returns the pattern of the route that matched the request, e.g: "/items/{id}". Empty when the request was
// not routed by a [Router].
func (r *Request) Route() string { return r.env.Get(KeyRoute) }

// Invalidate drops a memoized value so that it is computed again on next access.
func (r *Request) Invalidate(f Field) {
	r.cached[f] = false
}

func (r *Request) once(f Field) bool {
	if r.cached[f] {
		return false
	}

	r.cached[f] = true

	return true
}

// Method returns the upper-cased request method, GET if it is missing.
func (r *Request) Method() string {
	if r.once(FieldMethod) {
		r.method = strings.ToUpper(r.env.Get(KeyRequestMethod))
		if r.method == "" {
			r.method = "GET"
		}
	}

	return r.method
}

// Path returns the utf-8 decoded path, "/" if it is empty.
func (r *Request) Path() string {
	if r.once(FieldPath) {
		r.path = "/"
		if p := r.env.Get(KeyPathInfo); p != "" {
			r.path = DecodePathInfo(p)
		}
	}

	return r.path
}

// ScriptName returns the escaped path the application is mounted at.
func (r *Request) ScriptName() string {
	if r.once(FieldScriptName) {
		r.scriptName = (&url.URL{Path: DecodePathInfo(r.env.Get(KeyScriptName))}).EscapedPath()
	}

	return r.scriptName
}

// Query returns the parsed query string.
func (r *Request) Query() *Query {
	if r.once(FieldQuery) {
		r.query = ParseQuery(r.env.Get(KeyQueryString))
	}

	return r.query
}

// Cookies returns the request cookies, nil if no Cookie header was sent.
func (r *Request) Cookies() *Cookies {
	if r.once(FieldCookies) {
		r.cookies = nil
		if header, ok := r.env.Lookup(KeyHTTPCookie); ok {
			r.cookies = ParseCookies(header)
		}
	}

	return r.cookies
}

// ContentType returns the parsed Content-Type header, nil if it was not sent. A malformed header results in
// a [CodeBadRequest] error.
func (r *Request) ContentType() (*ContentType, error) {
	if r.once(FieldContentType) {
		r.contentType, r.ctErr = nil, nil
		if header := r.env.Get(KeyContentType); header != "" {
			r.contentType, r.ctErr = ParseContentType(header)
			r.ctErr = asBadRequest(r.ctErr)
		}
	}

	return r.contentType, r.ctErr
}

// Domain returns the host without its port.
func (r *Request) Domain() string {
	host, _, _ := strings.Cut(r.env.Get(KeyHTTPHost), ":")
	return host
}

// ApplicationURI returns the absolute URI the application is mounted at.
func (r *Request) ApplicationURI() string {
	if r.once(FieldApplicationURI) {
		r.appURI = r.applicationURI()
	}

	return r.appURI
}

func (r *Request) applicationURI() string {
	scheme := r.env.Get(KeyURLScheme)
	if scheme == "" {
		scheme = "http"
	}

	var server, port string
	switch host := r.env.Get(KeyHTTPHost); {
	case host == "":
		server, port = r.env.Get(KeyServerName), r.env.Get(KeyServerPort)
		if port == "" {
			port = "80"
		}
	case strings.Contains(host, ":"):
		server, port, _ = strings.Cut(host, ":")
	default:
		server, port = host, "80"
	}

	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		return scheme + "://" + server + r.ScriptName()
	}

	return scheme + "://" + server + ":" + port + r.ScriptName()
}

// URI returns the absolute URI of the request, optionally with its query string.
func (r *Request) URI(includeQuery bool) string {
	uri := r.ApplicationURI() + (&url.URL{Path: DecodePathInfo(r.env.Get(KeyPathInfo))}).EscapedPath()
	if qs := r.env.Get(KeyQueryString); includeQuery && qs != "" {
		return uri + "?" + qs
	}

	return uri
}

// Data returns the parsed body. A request without a content type has empty data.
func (r *Request) Data() (*Data, error) {
	if r.once(FieldData) {
		r.data, r.dataErr = r.parseData()
	}

	return r.data, r.dataErr
}

func (r *Request) parseData() (*Data, error) {
	ct, err := r.ContentType()
	if err != nil {
		return nil, err
	}

	if ct == nil {
		return NewData(), nil
	}

	return r.registry.Parse(r.env.Body, ct)
}

// Negotiate returns the offer that best matches the Accept header, or an empty string.
func (r *Request) Negotiate(offers ...string) string {
	return Negotiate(r.env.Get(KeyHTTPAccept), offers...)
}
