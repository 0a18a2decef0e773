package bgate

import (
	"context"
	"fmt"
	"net/url"
	"slices"

	"github.com/cockroachdb/errors"
)

// ResolveError reports a path that traversal could not resolve to a view.
type ResolveError struct {
	msg string
}

func (e *ResolveError) Error() string { return e.msg }

func resolveErrorf(format string, args ...any) *ResolveError {
	return &ResolveError{msg: fmt.Sprintf(format, args...)}
}

// Consumer consumes leading steps of the stack, starting from a model. It returns the model it reached and the
// steps it left. A stack that did not get shorter means nothing was consumed.
type Consumer func(ctx context.Context, model any, stack []Step) (any, []Step, error)

type consumer struct {
	accepts func(any) bool
	consume Consumer
}

// ModelLookup walks from a root model to the model a path points at, using the consumers that are registered for
// the type of the current model.
type ModelLookup struct {
	consumers []consumer
}

// NewModelLookup inits an empty model lookup.
func NewModelLookup() *ModelLookup {
	return &ModelLookup{}
}

// AddConsumer registers a consumer for models of type T, which may be an interface. Consumers are tried in the
// order they were added.
func AddConsumer[T any](l *ModelLookup, c func(ctx context.Context, model T, stack []Step) (any, []Step, error)) {
	l.consumers = append(l.consumers, consumer{
		accepts: func(m any) bool { _, ok := m.(T); return ok },
		consume: func(ctx context.Context, m any, stack []Step) (any, []Step, error) {
			return c(ctx, m.(T), stack)
		},
	})
}

// Lookup traverses the stack starting from the model. It stops when no consumer of the current model consumes
// anything, and returns the model it reached together with the steps that are left.
func (l *ModelLookup) Lookup(ctx context.Context, model any, stack []Step) (any, []Step, error) {
	rest := slices.Clone(stack)
	for len(rest) > 0 {
		consumed := false
		for _, c := range l.consumers {
			if !c.accepts(model) {
				continue
			}

			next, left, err := c.consume(ctx, model, rest)
			if err != nil {
				return nil, nil, err
			}

			if len(left) < len(rest) {
				model, rest, consumed = next, left, true
				break
			}
		}

		if !consumed {
			break
		}
	}

	return model, rest, nil
}

// ViewLookup finds the application that renders a model under a view name. It returns nil when there is none.
type ViewLookup interface {
	LookupView(model any, name string, env *Environ) (Application, error)
}

// ViewLookupFunc allows a function to implement [ViewLookup].
type ViewLookupFunc func(model any, name string, env *Environ) (Application, error)

// LookupView implements [ViewLookup].
func (f ViewLookupFunc) LookupView(model any, name string, env *Environ) (Application, error) {
	return f(model, name, env)
}

// ResolveView returns the view for the model given the steps that model traversal left. No steps select the
// default view, a single step names the view. Anything else fails with a [*ResolveError].
func ResolveView(l ViewLookup, model any, stack []Step, env *Environ, defaultName string) (Application, error) {
	var step Step
	switch len(stack) {
	case 0:
		step = Step{Namespace: NamespaceView, Name: defaultName}
	case 1:
		step = stack[0]
	default:
		return nil, resolveErrorf("Can't resolve view: stack is not fully consumed.")
	}

	if step.Namespace != NamespaceDefault && step.Namespace != NamespaceView {
		return nil, resolveErrorf("Can't resolve view: namespace '%s' is not supported.", step.Namespace)
	}

	view, err := l.LookupView(model, step.Name, env)
	if err != nil {
		return nil, err
	}

	if view != nil {
		return view, nil
	}

	switch {
	case len(stack) == 0:
		return nil, resolveErrorf("Can't resolve view: no default view on %T.", model)
	case step.Namespace == NamespaceView:
		return nil, resolveErrorf("Can't resolve view: no view '%s' on %T.", step.Name, model)
	default:
		return nil, resolveErrorf("'%s' is neither a view nor a model.", step.Name)
	}
}

type namedView struct {
	name    string
	accepts func(any) bool
	handler func(model any) Handler
}

// Views is a [ViewLookup] that holds named views per model type.
type Views struct {
	views   []namedView
	reqOpts []RequestOption
}

// NewViews inits an empty set of views. The options configure the requests the views receive.
func NewViews(opts ...RequestOption) *Views {
	return &Views{reqOpts: opts}
}

// AddView registers a view for models of type T, which may be an interface. When several views match, the one
// added last wins.
func AddView[T any](v *Views, name string, view func(ctx context.Context, model T, r *Request) (*Response, error)) {
	v.views = append(v.views, namedView{
		name:    name,
		accepts: func(m any) bool { _, ok := m.(T); return ok },
		handler: func(m any) Handler {
			return HandlerFunc(func(ctx context.Context, r *Request) (*Response, error) {
				return view(ctx, m.(T), r)
			})
		},
	})
}

// LookupView implements [ViewLookup].
func (v *Views) LookupView(model any, name string, _ *Environ) (Application, error) {
	for _, nv := range slices.Backward(v.views) {
		if nv.name == name && nv.accepts(model) {
			return ToApplication(nv.handler(model), v.reqOpts...), nil
		}
	}

	return nil, nil
}

// PublisherOption configures a publisher.
type PublisherOption func(*Publisher)

// WithShortcuts sets the namespace shortcuts used when parsing the path.
func WithShortcuts(s Shortcuts) PublisherOption {
	return func(p *Publisher) { p.shortcuts = s }
}

// WithDefaultView sets the name of the view that renders a model when the path ends at it. Defaults to "index".
func WithDefaultView(name string) PublisherOption {
	return func(p *Publisher) { p.defaultView = name }
}

// WithPublisherNode configures the node the publisher dispatches through.
func WithPublisherNode(opts ...NodeOption) PublisherOption {
	return func(p *Publisher) { p.nodeOpts = append(p.nodeOpts, opts...) }
}

// Publisher resolves paths by traversing models from a root and then looking up a view on the model it reached.
// It is an [Application] through its embedded [Node]. Paths that do not resolve are answered with a 404.
type Publisher struct {
	*Node
	root        func(env *Environ) (any, error)
	models      *ModelLookup
	views       ViewLookup
	shortcuts   Shortcuts
	defaultView string
	nodeOpts    []NodeOption
}

// NewPublisher inits a publisher. The root function returns the model traversal starts from.
func NewPublisher(
	root func(env *Environ) (any, error), models *ModelLookup, views ViewLookup, opts ...PublisherOption,
) *Publisher {
	p := &Publisher{root: root, models: models, views: views, defaultView: "index"}
	for _, opt := range opts {
		opt(p)
	}

	p.Node = NewNode(p, p.nodeOpts...)

	return p
}

// Publish returns the view for the path.
func (p *Publisher) Publish(pathInfo string, env *Environ) (Application, error) {
	root, err := p.root(env)
	if err != nil {
		return nil, err
	}

	stack := ParsePath(pathInfo, p.shortcuts)
	for i, s := range stack {
		if name, err := url.PathUnescape(s.Name); err == nil {
			stack[i].Name = name
		}
	}

	model, rest, err := p.models.Lookup(env.Context(), root, stack)
	if err != nil {
		return nil, err
	}

	return ResolveView(p.views, model, rest, env, p.defaultView)
}

// Resolve implements [Resolver]. A [*ResolveError] becomes a 404 carrying its message.
func (p *Publisher) Resolve(pathInfo string, env *Environ) (Application, error) {
	view, err := p.Publish(pathInfo, env)
	if resolveErr := (*ResolveError)(nil); errors.As(err, &resolveErr) {
		return nil, NewError(CodeNotFound, resolveErr)
	}

	return view, err
}
