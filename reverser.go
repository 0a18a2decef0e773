package bgate

import (
	"slices"

	"github.com/advdv/bgate/internal/pattern"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// Reverser keeps track of named path patterns and builds paths from them.
type Reverser struct {
	pats map[string]*pattern.Pattern
}

// NewReverser inits the reverser.
func NewReverser() *Reverser {
	return &Reverser{make(map[string]*pattern.Pattern)}
}

// Names returns the sorted names of all patterns.
func (r Reverser) Names() []string {
	names := lo.Keys(r.pats)
	slices.Sort(names)

	return names
}

// Reverse builds the path of the named pattern. Values fill the wildcards in order and are escaped, except for
// the final multi-segment wildcard which keeps its slashes.
func (r Reverser) Reverse(name string, vals ...string) (string, error) {
	pat, ok := r.pats[name]
	if !ok {
		return "", errors.Newf("no pattern named: %q, got: %v", name, r.Names())
	}

	res, err := pat.Build(vals...)
	if err != nil {
		return "", errors.Wrapf(err, "failed to build %q", name)
	}

	return res, nil
}

// Named is a convenience method that panics if naming the pattern fails.
func (r Reverser) Named(name, str string) string {
	str, err := r.NamedPattern(name, str)
	if err != nil {
		panic("bgate: " + err.Error())
	}

	return str
}

// NamedPattern parses str as a path pattern and registers it under the name. The pattern is returned unchanged.
func (r Reverser) NamedPattern(name, str string) (string, error) {
	if _, exists := r.pats[name]; exists {
		return str, errors.Newf("pattern with name %q already exists", name)
	}

	pat, err := pattern.Parse(str)
	if err != nil {
		return str, errors.Wrap(err, "failed to parse pattern")
	}

	r.pats[name] = pat

	return str, nil
}
