package bgate

import (
	"context"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Getter is implemented by views that serve GET requests.
type Getter interface {
	Get(ctx context.Context, r *Request) (*Response, error)
}

// Headable is implemented by views that serve HEAD requests.
type Headable interface {
	Head(ctx context.Context, r *Request) (*Response, error)
}

// Poster is implemented by views that serve POST requests.
type Poster interface {
	Post(ctx context.Context, r *Request) (*Response, error)
}

// Putter is implemented by views that serve PUT requests.
type Putter interface {
	Put(ctx context.Context, r *Request) (*Response, error)
}

// Patcher is implemented by views that serve PATCH requests.
type Patcher interface {
	Patch(ctx context.Context, r *Request) (*Response, error)
}

// Deleter is implemented by views that serve DELETE requests.
type Deleter interface {
	Delete(ctx context.Context, r *Request) (*Response, error)
}

// Optioner is implemented by views that serve OPTIONS requests.
type Optioner interface {
	Options(ctx context.Context, r *Request) (*Response, error)
}

// ViewMethods returns a handler for each method the view implements, keyed by method.
func ViewMethods(view any) map[string]Handler {
	methods := map[string]Handler{}
	if v, ok := view.(Getter); ok {
		methods["GET"] = HandlerFunc(v.Get)
	}
	if v, ok := view.(Headable); ok {
		methods["HEAD"] = HandlerFunc(v.Head)
	}
	if v, ok := view.(Poster); ok {
		methods["POST"] = HandlerFunc(v.Post)
	}
	if v, ok := view.(Putter); ok {
		methods["PUT"] = HandlerFunc(v.Put)
	}
	if v, ok := view.(Patcher); ok {
		methods["PATCH"] = HandlerFunc(v.Patch)
	}
	if v, ok := view.(Deleter); ok {
		methods["DELETE"] = HandlerFunc(v.Delete)
	}
	if v, ok := view.(Optioner); ok {
		methods["OPTIONS"] = HandlerFunc(v.Options)
	}

	return methods
}

// View turns a value that implements one or more of the method interfaces into a handler. The method table is
// built once. Requests for a method the view doesn't implement are answered with a 405.
func View(view any) Handler {
	methods := ViewMethods(view)
	allowed := lo.Keys(methods)
	slices.Sort(allowed)

	return HandlerFunc(func(ctx context.Context, r *Request) (*Response, error) {
		h, ok := methods[r.Method()]
		if !ok && r.Method() == "HEAD" {
			h, ok = methods["GET"]
		}

		if !ok {
			return newResponse(CodeMethodNotAllowed, nil, WithHeader("Allow", strings.Join(allowed, ", "))), nil
		}

		return h.ServeRequest(ctx, r)
	})
}
