package bgate

import (
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// Mapping mounts applications at path prefixes. A request is served by the application with the longest prefix
// that matches its path on a segment boundary, after moving the prefix from PATH_INFO to SCRIPT_NAME. A Mapping
// is itself an application, so mappings can be nested.
type Mapping struct {
	*Node
	paths []string
	apps  map[string]Application
}

// NewMapping inits an empty mapping.
func NewMapping(opts ...NodeOption) *Mapping {
	m := &Mapping{apps: map[string]Application{}}
	m.Node = NewNode(m, opts...)

	return m
}

// NormalizeMountPath validates a mount path and collapses its repeated slashes.
func NormalizeMountPath(path string) (string, error) {
	if !strings.HasPrefix(path, "/") {
		return "", errors.Newf("Path must start with '/', got '%s'", path)
	}

	return NormalizePath(path), nil
}

// Set mounts the application at the path, replacing the application that was mounted there.
func (m *Mapping) Set(path string, app Application) error {
	path, err := NormalizeMountPath(path)
	if err != nil {
		return err
	}

	if _, ok := m.apps[path]; !ok {
		m.paths = append(m.paths, path)
	}

	m.apps[path] = app

	return nil
}

// MustSet is a convenience method that panics if mounting fails.
func (m *Mapping) MustSet(path string, app Application) {
	if err := m.Set(path, app); err != nil {
		panic("bgate: " + err.Error())
	}
}

// Get returns the application mounted at the path.
func (m *Mapping) Get(path string) (Application, bool) {
	path, err := NormalizeMountPath(path)
	if err != nil {
		return nil, false
	}

	app, ok := m.apps[path]

	return app, ok
}

// Delete unmounts the application at the path.
func (m *Mapping) Delete(path string) {
	path, err := NormalizeMountPath(path)
	if err != nil {
		return
	}

	delete(m.apps, path)
	m.paths = lo.Without(m.paths, path)
}

// Len returns the number of mounted applications.
func (m *Mapping) Len() int { return len(m.paths) }

// Paths returns the mount paths in the order they were set.
func (m *Mapping) Paths() []string { return slices.Clone(m.paths) }

// Resolve implements [Resolver]. It rewrites SCRIPT_NAME and PATH_INFO of the environment when a prefix matches.
func (m *Mapping) Resolve(pathInfo string, env *Environ) (Application, error) {
	candidates := slices.Clone(m.paths)
	slices.SortStableFunc(candidates, func(a, b string) int { return len(b) - len(a) })

	for _, prefix := range candidates {
		if !strings.HasPrefix(pathInfo, prefix) {
			continue
		}

		name := strings.TrimRight(prefix, "/")
		rest := pathInfo[len(name):]
		if rest != "" && rest[0] != '/' {
			continue
		}

		env.Set(KeyScriptName, env.Get(KeyScriptName)+EncodePathInfo(name))
		env.Set(KeyPathInfo, EncodePathInfo(rest))

		return m.apps[prefix], nil
	}

	return nil, nil
}
