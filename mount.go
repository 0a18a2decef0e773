package bgate

import (
	"fmt"
	"strings"

	"github.com/advdv/bgate/internal/pattern"
	"github.com/samber/lo"
)

// Mount mounts an application on a sub-path. The mounted application receives requests with the prefix moved
// from PATH_INFO to SCRIPT_NAME, like it would when mounted in a [Mapping]. Middleware registered via
// [Router.Use] does not apply to mounted applications.
func (rt *Router) Mount(prefix string, app Application) {
	prefix, err := NormalizeMountPath(prefix)
	if err != nil {
		panic("bgate: " + err.Error())
	}

	rt.middlewares.captured = true

	prefix = strings.TrimRight(prefix, "/")
	rt.mount(prefix+"/", prefix, app)
	if prefix != "" {
		rt.mount(prefix, prefix, app)
	}
}

// MountHandler mounts a handler on a sub-path, see [Router.Mount]. Middleware registered via [Router.Use] is
// applied and sees the stripped path.
func (rt *Router) MountHandler(prefix string, handler Handler) {
	rt.Mount(prefix, ToApplication(Wrap(handler, rt.middlewares.buffered...), rt.reqOpts...))
}

func (rt *Router) mount(path, prefix string, app Application) {
	if lo.ContainsBy(rt.routes, func(r *route) bool { return r.pat.String() == path }) {
		panic(fmt.Sprintf("bgate: pattern %q is already registered", path))
	}

	pat, err := pattern.Parse(path)
	if err != nil {
		panic("bgate: " + err.Error())
	}

	rt.routes = append(rt.routes, &route{pat: pat, mount: app, prefix: prefix})
}
