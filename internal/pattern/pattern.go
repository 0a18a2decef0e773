// Package pattern parses, matches and builds route path patterns such as "/items/{id}" or "/files/{path...}".
// A pattern ending in a slash matches every path below it, unless it ends in "{$}".
package pattern

import (
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
)

type kind int

const (
	literal kind = iota
	single
	multi
)

type segment struct {
	kind kind
	s    string // literal text, or the wildcard name
}

// Pattern is a parsed path pattern.
type Pattern struct {
	raw      string
	segments []segment
	subtree  bool
}

// Parse parses the path pattern.
func Parse(s string) (*Pattern, error) {
	if s == "" {
		return nil, errors.New("empty pattern")
	}

	if s[0] != '/' {
		return nil, errors.Newf("pattern %q must start with a slash", s)
	}

	p := &Pattern{raw: s}
	rest := s[1:]
	if strings.HasSuffix(rest, "/") || rest == "" {
		p.subtree = true
		rest = strings.TrimSuffix(rest, "/")
	}

	seen := map[string]bool{}
	for rest != "" {
		seg, tail, more := strings.Cut(rest, "/")
		rest = tail

		if !strings.HasPrefix(seg, "{") {
			if strings.ContainsAny(seg, "{}") {
				return nil, errors.Newf("pattern %q: bad wildcard segment %q", s, seg)
			}
			p.segments = append(p.segments, segment{literal, seg})
			if more && rest == "" {
				p.segments = append(p.segments, segment{literal, ""})
			}
			continue
		}

		if !strings.HasSuffix(seg, "}") {
			return nil, errors.Newf("pattern %q: bad wildcard segment %q", s, seg)
		}

		name := seg[1 : len(seg)-1]
		if name == "$" {
			if more || p.subtree {
				return nil, errors.Newf("pattern %q: {$} not at end", s)
			}
			p.segments = append(p.segments, segment{literal, ""})
			continue
		}

		k := single
		if strings.HasSuffix(name, "...") {
			if more || p.subtree {
				return nil, errors.Newf("pattern %q: %q wildcard not at end", s, name)
			}
			name, k = strings.TrimSuffix(name, "..."), multi
		}

		if name == "" {
			return nil, errors.Newf("pattern %q: empty wildcard", s)
		}
		if seen[name] {
			return nil, errors.Newf("pattern %q: duplicate wildcard name %q", s, name)
		}
		seen[name] = true

		p.segments = append(p.segments, segment{k, name})
	}

	return p, nil
}

// String returns the pattern as it was parsed.
func (p *Pattern) String() string { return p.raw }

// Names returns the wildcard names, in order.
func (p *Pattern) Names() []string {
	var names []string
	for _, seg := range p.segments {
		if seg.kind != literal {
			names = append(names, seg.s)
		}
	}

	return names
}

// Match matches the path against the pattern and returns the wildcard values.
func (p *Pattern) Match(path string) (map[string]string, bool) {
	if path == "" || path[0] != '/' {
		return nil, false
	}

	parts := strings.Split(path[1:], "/")
	params := map[string]string{}
	for i, seg := range p.segments {
		if i >= len(parts) {
			return nil, false
		}

		switch seg.kind {
		case literal:
			if parts[i] != seg.s {
				return nil, false
			}
		case single:
			if parts[i] == "" {
				return nil, false
			}
			params[seg.s] = unescape(parts[i])
		case multi:
			params[seg.s] = unescape(strings.Join(parts[i:], "/"))
			return params, true
		}
	}

	if p.subtree {
		return params, len(parts) > len(p.segments)
	}

	return params, len(parts) == len(p.segments)
}

// Build substitutes the values for the wildcards, in order.
func (p *Pattern) Build(vals ...string) (string, error) {
	var b strings.Builder
	n := 0
	for _, seg := range p.segments {
		b.WriteByte('/')
		if seg.kind == literal {
			b.WriteString(seg.s)
			continue
		}

		if n >= len(vals) {
			return "", errors.Newf("not enough values for pattern %q", p.raw)
		}

		if seg.kind == single {
			b.WriteString(url.PathEscape(vals[n]))
		} else {
			b.WriteString(vals[n])
		}
		n++
	}

	if n < len(vals) {
		return "", errors.Newf("too many values for pattern %q", p.raw)
	}

	if p.subtree {
		b.WriteByte('/')
	}

	return b.String(), nil
}

// MoreSpecific reports whether a should take precedence over b when both match a path. Segments are compared
// in order: literals beat single wildcards, which beat multi wildcards. Longer patterns beat shorter ones and
// exact patterns beat subtrees.
func MoreSpecific(a, b *Pattern) bool {
	for i := 0; i < len(a.segments) && i < len(b.segments); i++ {
		if ka, kb := a.segments[i].kind, b.segments[i].kind; ka != kb {
			return ka < kb
		}
	}

	if len(a.segments) != len(b.segments) {
		return len(a.segments) > len(b.segments)
	}

	return !a.subtree && b.subtree
}

func unescape(s string) string {
	out, err := url.PathUnescape(s)
	if err != nil {
		return s
	}

	return out
}
