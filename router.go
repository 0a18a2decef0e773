package bgate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/advdv/bgate/internal/pattern"
	"github.com/samber/lo"
)

type route struct {
	pat     *pattern.Pattern
	methods map[string]Handler // "" matches any method
	mount   Application
	prefix  string
}

// Router routes requests by path pattern and method, with named routes. It is an [Application] through its
// embedded [Node]. A path that matches a pattern without a handler for the method is answered with a 405.
type Router struct {
	*Node
	reverser    *Reverser
	reqOpts     []RequestOption
	routes      []*route
	middlewares struct {
		captured bool
		buffered []Middleware
	}
}

// NewRouter creates a new Router with default settings.
func NewRouter(opts ...NodeOption) *Router {
	return NewRouterWith(NewReverser(), DefaultRegistry, opts...)
}

// NewRouterWith creates a Router with custom settings.
func NewRouterWith(reverser *Reverser, registry *Registry, opts ...NodeOption) *Router {
	r := &Router{
		reverser: reverser,
		reqOpts:  []RequestOption{WithRegistry(registry)},
	}
	r.Node = NewNode(r, opts...)

	return r
}

// Reverse returns the url based on the name and parameter values.
func (rt *Router) Reverse(name string, vals ...string) (string, error) {
	return rt.reverser.Reverse(name, vals...)
}

// Use allows providing of middleware.
func (rt *Router) Use(mw ...Middleware) {
	rt.ensureNoUseAfterHandle()
	rt.middlewares.buffered = append(rt.middlewares.buffered, mw...)
}

// HandleFunc handles the request given the pattern using a function.
func (rt *Router) HandleFunc(pattern string, handler HandlerFunc, name ...string) {
	rt.Handle(pattern, handler, name...)
}

// Handle handles the request given a handler. The pattern is a path pattern, optionally prefixed by a method and
// a space, e.g: "GET /items/{id}". Without a method the handler serves every method.
func (rt *Router) Handle(pattern string, handler Handler, name ...string) {
	method, path := splitMethodPattern(pattern)
	rt.add(path, map[string]Handler{method: handler}, name...)
}

// HandleView registers every method handler the view implements at the path. See [ViewMethods].
func (rt *Router) HandleView(path string, view any, name ...string) {
	methods := ViewMethods(view)
	if len(methods) == 0 {
		panic(fmt.Sprintf("bgate: view %T implements no method handlers", view))
	}

	rt.add(path, methods, name...)
}

func (rt *Router) add(path string, methods map[string]Handler, name ...string) {
	rt.middlewares.captured = true

	if len(name) > 0 {
		path = rt.reverser.Named(name[0], path)
	}

	r := rt.lookup(path)
	for method, h := range methods {
		if _, exists := r.methods[method]; exists {
			panic(fmt.Sprintf("bgate: pattern %q already has a handler for method %q", path, method))
		}

		r.methods[method] = Wrap(h, rt.middlewares.buffered...)
	}
}

// lookup returns the route for the path pattern, creating it when needed.
func (rt *Router) lookup(path string) *route {
	if r, ok := lo.Find(rt.routes, func(r *route) bool { return r.pat.String() == path }); ok {
		if r.mount != nil {
			panic(fmt.Sprintf("bgate: pattern %q is already mounted", path))
		}
		return r
	}

	pat, err := pattern.Parse(path)
	if err != nil {
		panic("bgate: " + err.Error())
	}

	r := &route{pat: pat, methods: map[string]Handler{}}
	rt.routes = append(rt.routes, r)

	return r
}

// Resolve implements [Resolver]. The most specific pattern that matches the path wins.
func (rt *Router) Resolve(pathInfo string, env *Environ) (Application, error) {
	var (
		best   *route
		params map[string]string
	)

	for _, r := range rt.routes {
		p, ok := r.pat.Match(pathInfo)
		if !ok || (best != nil && !pattern.MoreSpecific(r.pat, best.pat)) {
			continue
		}

		best, params = r, p
	}

	if best == nil {
		return nil, nil
	}

	if best.mount != nil {
		rest := strings.TrimPrefix(pathInfo, best.prefix)
		env.Set(KeyRoute, env.Get(KeyRoute)+best.prefix)
		env.Set(KeyScriptName, env.Get(KeyScriptName)+EncodePathInfo(best.prefix))
		env.Set(KeyPathInfo, EncodePathInfo(rest))

		return best.mount, nil
	}

	method := strings.ToUpper(env.Get(KeyRequestMethod))
	if method == "" {
		method = "GET"
	}

	h, ok := best.methods[method]
	if !ok && method == "HEAD" {
		h, ok = best.methods["GET"]
	}
	if !ok {
		h, ok = best.methods[""]
	}

	if !ok {
		allowed := lo.Keys(best.methods)
		slices.Sort(allowed)

		return newResponse(CodeMethodNotAllowed, nil, WithHeader("Allow", strings.Join(allowed, ", "))), nil
	}

	env.Set(KeyRoute, env.Get(KeyRoute)+best.pat.String())
	if env.Params == nil {
		env.Params = make(map[string]string, len(params))
	}
	for k, v := range params {
		env.Params[k] = v
	}

	return ToApplication(h, rt.reqOpts...), nil
}

func (rt *Router) ensureNoUseAfterHandle() {
	if rt.middlewares.captured {
		panic("bgate: cannot call Use() after calling Handle")
	}
}

func splitMethodPattern(pattern string) (method, path string) {
	pattern = strings.TrimSpace(pattern)
	if i := strings.IndexAny(pattern, " \t"); i >= 0 {
		return strings.ToUpper(pattern[:i]), strings.TrimLeft(pattern[i:], " \t")
	}

	return "", pattern
}
