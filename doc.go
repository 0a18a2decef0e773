// Package bgate provides request dispatching on top of a gateway style environment, with error-returning handlers.
//
// # Overview
//
// bgate separates the server from the application the same way gateway interfaces do: the server hands a raw
// [Environ] (method, path, headers and body stream) to an [Application], which calls a [StartResponse] callback
// with the status line and headers and returns a [Result] that produces the body in chunks. Everything in this
// package is built on that contract, so applications can be nested, mounted and served by any transport.
// [ToStd] and [FromRequest] bridge it to the standard library http server.
//
// A minimal example:
//
//	rt := bgate.NewRouter()
//	rt.HandleFunc("GET /items/{id}", func(ctx context.Context, r *bgate.Request) (*bgate.Response, error) {
//	    item, err := db.GetItem(r.Param("id"))
//	    if err != nil {
//	        return nil, bgate.NewError(bgate.CodeNotFound, err)
//	    }
//	    return bgate.JSON(bgate.CodeOK, item)
//	}, "get-item")
//
//	http.ListenAndServe(":8080", bgate.ToStd(rt, bgate.NewStdLogger(nil)))
//
// # Handler Signature
//
// Handlers receive a context and a [Request], and return a [*Response] or an error:
//
//	func(ctx context.Context, r *bgate.Request) (*bgate.Response, error)
//
// The [Request] is a read-only view over the environment. Its values (method, path, query, cookies, content
// type, parsed body) are computed on first access and memoized. [Request.Invalidate] drops a memoized value.
//
// # Error Handling
//
// When a handler returns an error, the [Node] that dispatched the request decides what happens:
//
//   - [*Error] (created with [NewError] or [Errorf]): answered with the error's code and message
//   - Other errors: reported to the [Logger] and returned to the server, which answers with a 500
//
// An [*Error] created without an underlying error uses the description of its status as the message, e.g:
// "Nothing matches the given URI" for [CodeNotFound].
//
// # Dispatching
//
// A [Node] resolves the path of a request to an application through its [Resolver]. Two resolvers are provided:
//
//   - [Mapping] mounts applications at path prefixes. The longest prefix that matches on a segment boundary
//     wins and is moved from PATH_INFO to SCRIPT_NAME.
//   - [Router] matches path patterns such as "/items/{id}" and dispatches on the method. A path that matches
//     but has no handler for the method is answered with a 405.
//
// Paths that nothing matches are answered with a 404. Both are applications themselves, so they can be nested:
//
//	api := bgate.NewRouter()
//	api.HandleView("/users/{id}", &UserView{})
//
//	root := bgate.NewMapping()
//	root.MustSet("/api", api)
//	root.MustSet("/", site)
//
// # Request Bodies
//
// [Request.Data] parses the body with the parser that a [Registry] holds for its content type. Parsers for
// JSON, urlencoded and multipart form bodies are registered by default, others can be added with
// [Registry.Register]. An unknown content type or a malformed body is answered with a 400.
//
// Multipart bodies are parsed incrementally by [Multipart], which accepts the body in chunks of any size.
//
// # Responses
//
// A [Response] carries a status, headers with a cookie jar, and a body that is a []byte, a string or an
// iterator of chunks. Finishers added with [Response.AddFinisher] run when the response is closed, after the
// body was sent. Responses with a 1xx, 204 or 304 status never carry a body.
//
// # Middleware
//
// Middleware wraps handlers to add cross-cutting concerns:
//
//	func timing(next bgate.Handler) bgate.Handler {
//	    return bgate.HandlerFunc(func(ctx context.Context, r *bgate.Request) (*bgate.Response, error) {
//	        start := time.Now()
//	        resp, err := next.ServeRequest(ctx, r)
//	        log.Printf("%s %s took %v", r.Method(), r.Path(), time.Since(start))
//	        return resp, err
//	    })
//	}
//
//	rt := bgate.NewRouter()
//	rt.Use(timing)
//
// # Named Routes and URL Reversing
//
// Routes can be named for URL generation, avoiding hardcoded paths:
//
//	rt.HandleFunc("GET /users/{id}", getUser, "get-user")
//
//	url, err := rt.Reverse("get-user", "123")  // returns "/users/123"
//
// Reading a request body that never ends blocks the handler. Servers should bound request bodies and
// durations, the bgserve package does so.
package bgate
