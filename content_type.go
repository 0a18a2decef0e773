package bgate

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/munnerz/goautoneg"
)

// Param is a single name=value option of a header value.
type Param struct {
	Name  string
	Value string
}

// Options are the ordered parameters of a header value, e.g: charset or boundary.
type Options []Param

// Get returns the value of the named option.
func (o Options) Get(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, p := range o {
		if p.Name == name {
			return p.Value, true
		}
	}

	return "", false
}

// set overwrites an existing option in place, or appends it.
func (o Options) set(name, value string) Options {
	for i := range o {
		if o[i].Name == name {
			o[i].Value = value
			return o
		}
	}

	return append(o, Param{name, value})
}

// ContentType is a parsed Content-Type header. It is never mutated after parsing.
type ContentType struct {
	MimeType string
	Options  Options
}

// ParseContentType parses a Content-Type header value.
func ParseContentType(header string) (*ContentType, error) {
	parts := splitParams(header)
	mimetype := strings.ToLower(strings.TrimSpace(parts[0]))
	if mimetype == "" || strings.Count(mimetype, "/") > 1 {
		return nil, malformed("Invalid mimetype: '%s'.", mimetype)
	}

	ct := &ContentType{MimeType: mimetype}
	for _, part := range parts[1:] {
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}

		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}

		ct.Options = ct.Options.set(name, unquote(strings.TrimSpace(value)))
	}

	return ct, nil
}

// ContentTypeOf returns the content type for a header value or an already parsed content type. The latter is
// returned as-is.
func ContentTypeOf[T string | *ContentType](v T) (*ContentType, error) {
	switch vt := any(v).(type) {
	case *ContentType:
		if vt == nil {
			return nil, errors.New("nil content type")
		}
		return vt, nil
	case string:
		return ParseContentType(vt)
	default:
		panic("bgate: unreachable")
	}
}

// Option returns the value of the named option.
func (ct *ContentType) Option(name string) (string, bool) {
	return ct.Options.Get(name)
}

// MediaType returns the media type for matching.
func (ct *ContentType) MediaType() MediaType {
	return NewMediaType(ct.MimeType)
}

// String formats the content type as a header value.
func (ct *ContentType) String() string {
	var b strings.Builder
	b.WriteString(ct.MimeType)
	for _, p := range ct.Options {
		b.WriteString("; ")
		b.WriteString(p.Name)
		b.WriteByte('=')
		b.WriteString(quote(p.Value))
	}

	return b.String()
}

// MediaType is a type/subtype pair that supports wildcards.
type MediaType struct {
	MainType string
	SubType  string
}

// NewMediaType splits a mimetype into a media type. A missing subtype is
// treated as a wildcard.
func NewMediaType(mimetype string) MediaType {
	main, sub, ok := strings.Cut(strings.ToLower(strings.TrimSpace(mimetype)), "/")
	if !ok || sub == "" {
		sub = "*"
	}
	if main == "" {
		main = "*"
	}

	return MediaType{MainType: main, SubType: sub}
}

// Match reports whether both media types match, wildcards on either side are honored.
func (m MediaType) Match(other MediaType) bool {
	if m.MainType != "*" && other.MainType != "*" && m.MainType != other.MainType {
		return false
	}
	if m.SubType != "*" && other.SubType != "*" && m.SubType != other.SubType {
		return false
	}

	return true
}

func (m MediaType) String() string { return m.MainType + "/" + m.SubType }

// Negotiate returns the best offer for an Accept header. It returns an empty string when nothing is
// acceptable. An empty header accepts the first offer.
func Negotiate(accept string, offers ...string) string {
	if len(offers) == 0 {
		return ""
	}
	if strings.TrimSpace(accept) == "" {
		return offers[0]
	}

	return goautoneg.Negotiate(accept, offers)
}

// splitParams splits a header value on semicolons that are not quoted.
func splitParams(s string) []string {
	var (
		parts   []string
		start   int
		quoted  bool
		escaped bool
	)

	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case escaped:
			escaped = false
		case c == '\\' && quoted:
			escaped = true
		case c == '"':
			quoted = !quoted
		case c == ';' && !quoted:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}

	return append(parts, s[start:])
}

func unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}

	s = s[1 : len(s)-1]
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}

	return b.String()
}

func quote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\"\\;,()<>@:/[]?={}") {
		return s
	}

	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}
