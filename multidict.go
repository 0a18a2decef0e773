package bgate

import (
	"iter"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// MultiDict is an ordered mapping of keys to one or more values. Keys keep
// the order in which they were first added. The zero value is ready to use.
type MultiDict[V any] struct {
	keys []string
	vals map[string][]V
}

// Add appends a value for the key.
func (d *MultiDict[V]) Add(key string, value V) {
	if d.vals == nil {
		d.vals = make(map[string][]V)
	}

	if _, ok := d.vals[key]; !ok {
		d.keys = append(d.keys, key)
	}

	d.vals[key] = append(d.vals[key], value)
}

// Get returns the first value for the key.
func (d *MultiDict[V]) Get(key string) (v V, ok bool) {
	vals := d.vals[key]
	if len(vals) == 0 {
		return v, false
	}

	return vals[0], true
}

// GetList returns all values for the key.
func (d *MultiDict[V]) GetList(key string) []V {
	return d.vals[key]
}

// Has reports whether the key is present.
func (d *MultiDict[V]) Has(key string) bool {
	_, ok := d.vals[key]
	return ok
}

// Keys returns the keys in insertion order.
func (d *MultiDict[V]) Keys() []string {
	return d.keys
}

// Len returns the number of keys.
func (d *MultiDict[V]) Len() int {
	return len(d.keys)
}

// Pairs iterates over every key/value pair, in order.
func (d *MultiDict[V]) Pairs() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, k := range d.keys {
			for _, v := range d.vals[k] {
				if !yield(k, v) {
					return
				}
			}
		}
	}
}

// ToMap collapses the dict into a map. Keys with a single value map to that value, others to the list of values.
// Keys that end in "[]" always map to a list and lose that suffix.
func (d *MultiDict[V]) ToMap() map[string]any {
	out := make(map[string]any, len(d.keys))
	for _, k := range d.keys {
		vals := d.vals[k]
		switch {
		case strings.HasSuffix(k, "[]"):
			out[strings.TrimSuffix(k, "[]")] = vals
		case len(vals) == 1:
			out[k] = vals[0]
		default:
			out[k] = vals
		}
	}

	return out
}

// Query holds the fields of a query string or a form body.
type Query struct {
	MultiDict[string]
}

// FormData holds the text fields of a form body.
type FormData = Query

// Files holds the file fields of a multipart form body.
type Files struct {
	MultiDict[*FileUpload]
}

var (
	trueStrings  = []string{"t", "true", "yes", "1", "on"}
	falseStrings = []string{"f", "false", "no", "0", "off"}
	noneStrings  = []string{"n", "none", "null"}
)

// ParseQuery parses a query string leniently: fields without a value are kept as blank values and undecodable
// escapes are kept verbatim.
func ParseQuery(s string) *Query {
	q := &Query{}
	for field := range strings.SplitSeq(s, "&") {
		if field == "" {
			continue
		}

		name, value, _ := strings.Cut(field, "=")
		q.Add(unescapeLenient(name), unescapeLenient(value))
	}

	return q
}

// ParseQueryStrict parses a query string while failing on fields without a "=" and on invalid escapes. Blank
// values are kept.
func ParseQueryStrict(s string) (*Query, error) {
	q := &Query{}
	for field := range strings.SplitSeq(s, "&") {
		name, value, ok := strings.Cut(field, "=")
		if !ok {
			return nil, malformed("bad query field: '%s'", field)
		}

		name, err := url.QueryUnescape(name)
		if err != nil {
			return nil, malformed("bad query field: '%s'", field)
		}

		value, err = url.QueryUnescape(value)
		if err != nil {
			return nil, malformed("bad query field: '%s'", field)
		}

		q.Add(name, value)
	}

	return q, nil
}

// Encode formats the query as an urlencoded string, in order.
func (q *Query) Encode() string {
	var b strings.Builder
	for k, v := range q.Pairs() {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v))
	}

	return b.String()
}

// Require returns the first value of the key, or a [CodeBadRequest] error when it is missing.
func (q *Query) Require(key string) (string, error) {
	v, ok := q.Get(key)
	if !ok {
		return "", Errorf(CodeBadRequest, "Missing '%s' key", key)
	}

	return v, nil
}

// Bool casts the value of the key to a boolean. The result is nil when the value is one of the "none" strings:
// n, none or null.
func (q *Query) Bool(key string) (*bool, error) {
	v, err := q.Require(key)
	if err != nil {
		return nil, err
	}

	lv := strings.ToLower(v)
	switch {
	case lo.Contains(trueStrings, lv):
		t := true
		return &t, nil
	case lo.Contains(falseStrings, lv):
		f := false
		return &f, nil
	case lo.Contains(noneStrings, lv):
		return nil, nil
	default:
		return nil, Errorf(CodeBadRequest, "Wrong boolean value for '%s=%s'", key, v)
	}
}

// Int casts the value of the key to an int.
func (q *Query) Int(key string) (int, error) {
	v, err := q.Require(key)
	if err != nil {
		return 0, err
	}

	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, Errorf(CodeBadRequest, "Key '%s' must be castable to int", key)
	}

	return i, nil
}

// Float casts the value of the key to a float.
func (q *Query) Float(key string) (float64, error) {
	v, err := q.Require(key)
	if err != nil {
		return 0, err
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, Errorf(CodeBadRequest, "Key '%s' must be castable to float", key)
	}

	return f, nil
}

func unescapeLenient(s string) string {
	out, err := url.QueryUnescape(s)
	if err != nil {
		return strings.ReplaceAll(s, "+", " ")
	}

	return out
}
