package bgate

import (
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// Data is the parsed body of a request.
type Data struct {
	Form  *Query
	Files *Files
	JSON  any

	raw []byte
}

// NewData inits empty data.
func NewData() *Data {
	return &Data{Form: &Query{}, Files: &Files{}}
}

// RawJSON returns the JSON document as it was sent, if the body was JSON.
func (d *Data) RawJSON() []byte { return d.raw }

// JSONPath looks up a value in the JSON document using gjson path syntax, e.g: "items.0.name".
func (d *Data) JSONPath(path string) gjson.Result {
	return gjson.GetBytes(d.raw, path)
}

// Parser parses a request body of the given mimetype.
type Parser func(body io.Reader, mimetype string, opts Options) (*Data, error)

var mimeTypeRegexp = regexp.MustCompile(`^(multipart|[-\w.]+/[-\w.+]+)$`)

// Registry maps mimetypes to body parsers.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

// DefaultRegistry is used by requests that are not given a registry of their own.
var DefaultRegistry = NewRegistry()

// NewRegistry inits a registry with the parsers for JSON, urlencoded and multipart bodies.
func NewRegistry() *Registry {
	return &Registry{parsers: map[string]Parser{
		"application/json":                  ParseJSON,
		"application/x-www-form-urlencoded": ParseURLEncoded,
		"multipart/form-data":               ParseMultipart,
	}}
}

// Register adds the parser for the mimetype, replacing any existing one.
func (r *Registry) Register(mimetype string, p Parser) error {
	if !mimeTypeRegexp.MatchString(mimetype) {
		return malformed("'%s' is not a valid MIME Type", mimetype)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[strings.ToLower(mimetype)] = p

	return nil
}

// MustRegister is a convenience method that panics if registration fails.
func (r *Registry) MustRegister(mimetype string, p Parser) {
	if err := r.Register(mimetype, p); err != nil {
		panic("bgate: " + err.Error())
	}
}

// Lookup returns the parser for the mimetype.
func (r *Registry) Lookup(mimetype string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[strings.ToLower(mimetype)]

	return p, ok
}

// MimeTypes returns the registered mimetypes.
func (r *Registry) MimeTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Keys(r.parsers)
}

// Parse parses the body with the parser registered for its content type. Unknown content types and malformed
// bodies result in a [CodeBadRequest] error, other errors are returned as-is.
func (r *Registry) Parse(body io.Reader, contentType any) (*Data, error) {
	var (
		ct  *ContentType
		err error
	)

	switch v := contentType.(type) {
	case *ContentType:
		ct, err = ContentTypeOf(v)
	case string:
		ct, err = ContentTypeOf(v)
	default:
		return nil, errors.Newf("unsupported content type value: %T", contentType)
	}
	if err != nil {
		return nil, asBadRequest(err)
	}

	parser, ok := r.Lookup(ct.MimeType)
	if !ok {
		return nil, Errorf(CodeBadRequest, "Unknown content type: '%s'.", ct.MimeType)
	}

	data, err := parser(body, ct.MimeType, ct.Options)
	if err != nil {
		return nil, asBadRequest(err)
	}

	return data, nil
}

// asBadRequest turns errors marked as malformed into a bad request. The message is that of the innermost error,
// the full chain stays available for logging.
func asBadRequest(err error) error {
	if !errors.Is(err, ErrMalformed) {
		return err
	}

	e := NewError(CodeBadRequest, err)
	e.msg = errors.UnwrapAll(err).Error()

	return e
}

// ParseJSON parses a JSON body.
func ParseJSON(body io.Reader, _ string, opts Options) (*Data, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}

	if len(raw) == 0 {
		return nil, malformed("The body of the request is empty.")
	}

	charset, _ := opts.Get("charset")
	text, err := decodeCharset(raw, charset)
	if err != nil {
		return nil, err
	}

	data := NewData()
	data.raw = []byte(text)
	if err := json.Unmarshal(data.raw, &data.JSON); err != nil {
		return nil, malformed("Unparsable JSON body.")
	}

	return data, nil
}

// ParseURLEncoded parses an urlencoded form body.
func ParseURLEncoded(body io.Reader, _ string, opts Options) (*Data, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}

	if len(raw) == 0 {
		return nil, malformed("The body of the request is empty.")
	}

	charset, _ := opts.Get("charset")
	text, err := decodeCharset(raw, charset)
	if err != nil {
		return nil, err
	}

	form, err := ParseQueryStrict(text)
	if err != nil {
		return nil, err
	}

	data := NewData()
	data.Form = form

	return data, nil
}

// ParseMultipart parses a multipart form body.
func ParseMultipart(body io.Reader, _ string, opts Options) (*Data, error) {
	boundary, ok := opts.Get("boundary")
	if !ok || boundary == "" {
		return nil, malformed("Missing boundary in Content-Type.")
	}

	mp := NewMultipart(boundary)
	for chunk, err := range readChunks(body, MultipartChunkSize) {
		if err != nil {
			return nil, err
		}

		if err := mp.Feed(chunk); err != nil {
			return nil, unparsableMultipart(err)
		}
	}

	if err := mp.Close(); err != nil {
		return nil, unparsableMultipart(err)
	}

	data := NewData()
	data.Form, data.Files = mp.Form(), mp.Files()

	return data, nil
}

func unparsableMultipart(cause error) error {
	return errors.WithSecondaryError(malformed("Unparsable multipart body."), cause)
}
