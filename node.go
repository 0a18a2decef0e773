package bgate

import (
	"regexp"

	"github.com/cockroachdb/errors"
)

var repeatedSlashes = regexp.MustCompile(`//+`)

// errReported marks errors that a node already reported, so that nested nodes don't report them again.
var errReported = errors.New("reported")

// NormalizePath collapses repeated slashes.
func NormalizePath(path string) string {
	return repeatedSlashes.ReplaceAllString(path, "/")
}

// Resolver finds the application that serves a path. It returns nil when nothing matches.
type Resolver interface {
	Resolve(pathInfo string, env *Environ) (Application, error)
}

// ResolverFunc allows a function to implement [Resolver].
type ResolverFunc func(pathInfo string, env *Environ) (Application, error)

// Resolve implements the [Resolver] interface.
func (f ResolverFunc) Resolve(pathInfo string, env *Environ) (Application, error) {
	return f(pathInfo, env)
}

// NodeOption configures a node.
type NodeOption func(*Node)

// WithLogger sets the logger that unexpected errors are reported to.
func WithLogger(l Logger) NodeOption {
	return func(n *Node) { n.logs = l }
}

// Node dispatches requests to the application its resolver finds for the path. It answers with a 404 when
// nothing matches and turns an [*Error] into the response it describes, as long as the response was not started.
// All other errors are reported to the logger and returned.
type Node struct {
	resolver Resolver
	logs     Logger
}

// NewNode inits a node.
func NewNode(r Resolver, opts ...NodeOption) *Node {
	n := &Node{resolver: r, logs: NewStdLogger(nil)}
	for _, opt := range opts {
		opt(n)
	}

	return n
}

// ServeGateway implements the [Application] interface. The returned result reports errors from closing it.
func (n *Node) ServeGateway(env *Environ, start StartResponse) (Result, error) {
	var started bool
	guarded := func(status string, headers []HeaderPair) error {
		started = true
		return start(status, headers)
	}

	path := NormalizePath(DecodePathInfo(env.Get(KeyPathInfo)))
	if path == "" {
		path = "/"
	}

	app, err := n.resolver.Resolve(path, env)
	if err != nil {
		return n.fail(env, start, false, err)
	}

	if app == nil {
		app = newResponse(CodeNotFound, nil)
	}

	res, err := app.ServeGateway(env, guarded)
	if err != nil {
		if res != nil {
			if cerr := closeResult(res); cerr != nil {
				if !errors.Is(cerr, errReported) {
					n.logs.LogCloseError(cerr)
				}
				err = errors.WithSecondaryError(err, cerr)
			}
		}

		return n.fail(env, start, started, err)
	}

	return &closingResult{Result: res, logs: n.logs}, nil
}

func (n *Node) fail(env *Environ, start StartResponse, started bool, err error) (Result, error) {
	if httpErr, ok := asError(err); ok && !started {
		return httpErr.Response().ServeGateway(env, start)
	}

	if !errors.Is(err, errReported) {
		n.logs.LogUnhandledError(err)
		err = errors.Mark(err, errReported)
	}

	return nil, err
}

// closingResult reports errors that occur while closing the result it wraps.
type closingResult struct {
	Result
	logs Logger
}

func (r *closingResult) Close() error {
	err := closeResult(r.Result)
	if err == nil || errors.Is(err, errReported) {
		return err
	}

	r.logs.LogCloseError(err)

	return errors.Mark(err, errReported)
}
