package bgate

import (
	"strings"

	"github.com/samber/lo"
)

// HeaderPair is a single header line.
type HeaderPair struct {
	Name  string
	Value string
}

// Headers is an ordered, case-insensitive collection of header lines. Response cookies are kept in a jar that is
// only created when it is first asked for.
type Headers struct {
	pairs   []HeaderPair
	cookies *Cookies
}

// NewHeaders inits the headers with the given lines.
func NewHeaders(pairs ...HeaderPair) *Headers {
	return &Headers{pairs: append([]HeaderPair(nil), pairs...)}
}

// Get returns the first value for the header name.
func (h *Headers) Get(name string) string {
	v, _ := h.Lookup(name)
	return v
}

// Lookup returns the first value for the header name and whether it is present.
func (h *Headers) Lookup(name string) (string, bool) {
	for _, p := range h.pairs {
		if strings.EqualFold(p.Name, name) {
			return p.Value, true
		}
	}

	return "", false
}

// Values returns every value for the header name.
func (h *Headers) Values(name string) []string {
	return lo.FilterMap(h.pairs, func(p HeaderPair, _ int) (string, bool) {
		return p.Value, strings.EqualFold(p.Name, name)
	})
}

// Has reports whether the header is present.
func (h *Headers) Has(name string) bool {
	_, ok := h.Lookup(name)
	return ok
}

// Add appends a header line.
func (h *Headers) Add(name, value string) {
	h.pairs = append(h.pairs, HeaderPair{name, value})
}

// Set replaces all lines of the header with a single one. The position of the first existing line is kept.
func (h *Headers) Set(name, value string) {
	idx := -1
	h.pairs = lo.Filter(h.pairs, func(p HeaderPair, i int) bool {
		if !strings.EqualFold(p.Name, name) {
			return true
		}
		if idx < 0 {
			idx = i
			return true
		}
		return false
	})

	if idx < 0 {
		h.Add(name, value)
		return
	}

	h.pairs[idx] = HeaderPair{name, value}
}

// SetDefault sets the header only when it is not present yet.
func (h *Headers) SetDefault(name, value string) {
	if !h.Has(name) {
		h.Add(name, value)
	}
}

// Del removes all lines of the header.
func (h *Headers) Del(name string) {
	h.pairs = lo.Reject(h.pairs, func(p HeaderPair, _ int) bool {
		return strings.EqualFold(p.Name, name)
	})
}

// Len returns the number of header lines, not counting cookies.
func (h *Headers) Len() int { return len(h.pairs) }

// Cookies returns the cookie jar, creating it when needed.
func (h *Headers) Cookies() *Cookies {
	if h.cookies == nil {
		h.cookies = NewCookies()
	}

	return h.cookies
}

// HasCookies reports whether the cookie jar was created.
func (h *Headers) HasCookies() bool { return h.cookies != nil }

// Pairs returns all header lines with a Set-Cookie line for each cookie of the jar at the end.
func (h *Headers) Pairs() []HeaderPair {
	out := make([]HeaderPair, 0, len(h.pairs))
	out = append(out, h.pairs...)
	if h.cookies == nil {
		return out
	}

	for _, line := range h.cookies.SetCookieLines() {
		out = append(out, HeaderPair{"Set-Cookie", line})
	}

	return out
}

// Coalesced returns the header lines with repeated names joined by a comma. Set-Cookie lines are never joined.
func (h *Headers) Coalesced() []HeaderPair {
	var out []HeaderPair
	index := map[string]int{}
	for _, p := range h.Pairs() {
		key := strings.ToLower(p.Name)
		if i, ok := index[key]; ok && key != "set-cookie" {
			out[i].Value += ", " + p.Value
			continue
		}

		index[key] = len(out)
		out = append(out, p)
	}

	return out
}
