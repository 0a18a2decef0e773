package bgate

import (
	"cmp"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// Namespaces of a traversal step.
const (
	NamespaceDefault = "default"
	NamespaceView    = "view"
)

// Step is a single segment of a traversal path.
type Step struct {
	Namespace string
	Name      string
}

// Shortcuts map a step prefix, such as "@@", to the namespace it abbreviates.
type Shortcuts map[string]string

// ParsePath splits a path into steps. A step that starts with "++ns++" is put in namespace "ns", all other steps
// are in the default namespace. Shortcuts are expanded before the namespace is read, the longest prefix first.
func ParsePath(path string, shortcuts Shortcuts) []Step {
	prefixes := lo.Keys(shortcuts)
	slices.SortFunc(prefixes, func(a, b string) int {
		return cmp.Or(cmp.Compare(len(b), len(a)), strings.Compare(a, b))
	})

	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	steps := make([]Step, 0, len(segments))
	for _, seg := range segments {
		if prefix, ok := lo.Find(prefixes, func(p string) bool { return strings.HasPrefix(seg, p) }); ok {
			seg = "++" + shortcuts[prefix] + "++" + seg[len(prefix):]
		}

		steps = append(steps, parseStep(seg))
	}

	return steps
}

func parseStep(seg string) Step {
	if rest, ok := strings.CutPrefix(seg, "++"); ok {
		if ns, name, ok := strings.Cut(rest, "++"); ok {
			return Step{Namespace: ns, Name: name}
		}
	}

	return Step{Namespace: NamespaceDefault, Name: seg}
}

// CreatePath formats steps as a path, abbreviating namespaces with a shortcut where one exists. It fails when two
// shortcuts abbreviate the same namespace.
func CreatePath(steps []Step, shortcuts Shortcuts) (string, error) {
	byNamespace := make(map[string]string, len(shortcuts))
	for prefix, ns := range shortcuts {
		if other, ok := byNamespace[ns]; ok {
			return "", errors.Newf("namespace %q has multiple shortcuts: %q and %q", ns, other, prefix)
		}
		byNamespace[ns] = prefix
	}

	segments := lo.Map(steps, func(s Step, _ int) string {
		if s.Namespace == NamespaceDefault || s.Namespace == "" {
			return s.Name
		}
		if prefix, ok := byNamespace[s.Namespace]; ok {
			return prefix + s.Name
		}

		return "++" + s.Namespace + "++" + s.Name
	})

	return "/" + strings.Join(segments, "/"), nil
}
