package bgate

import (
	"io"
	"iter"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"github.com/samber/lo"
)

// FileChunkSize is the size of the chunks a file body is streamed in.
const FileChunkSize = 4096

// Finisher runs after the response has been sent, when it is closed.
type Finisher func(*Response) error

// ResponseOption configures a response.
type ResponseOption func(*Response)

// WithHeader adds a header line to the response.
func WithHeader(name, value string) ResponseOption {
	return func(r *Response) { r.headers.Add(name, value) }
}

// WithHeaders adds header lines to the response.
func WithHeaders(pairs ...HeaderPair) ResponseOption {
	return func(r *Response) {
		for _, p := range pairs {
			r.headers.Add(p.Name, p.Value)
		}
	}
}

// WithCookie sets a cookie on the response.
func WithCookie(c *http.Cookie) ResponseOption {
	return func(r *Response) { r.headers.Cookies().Set(c) }
}

// WithFinisher queues a finisher on the response.
func WithFinisher(f Finisher) ResponseOption {
	return func(r *Response) { r.AddFinisher(f) }
}

// Response is the outcome of handling a request. It is itself an [Application] so it can be served directly, and
// the [Result] it returns is the response itself. The body may be nil, a []byte, a string, a [][]byte, an
// iter.Seq[[]byte], an iter.Seq2[[]byte, error] or an io.Reader. A nil body is rendered as the description of the
// status.
type Response struct {
	status    Code
	body      any
	headers   *Headers
	finishers []Finisher
}

// NewResponse creates a response. It fails if the code is not a known http status.
func NewResponse(code Code, body any, opts ...ResponseOption) (*Response, error) {
	if !code.Valid() {
		return nil, errors.Newf("%d is not a valid HTTP status", int(code))
	}

	return newResponse(code, body, opts...), nil
}

func newResponse(code Code, body any, opts ...ResponseOption) *Response {
	r := &Response{status: code, body: body, headers: NewHeaders()}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Status returns the status code.
func (r *Response) Status() Code { return r.status }

// StatusLine returns the status as passed to [StartResponse].
func (r *Response) StatusLine() string { return r.status.String() }

// Headers returns the response headers.
func (r *Response) Headers() *Headers { return r.headers }

// Cookies returns the cookie jar of the response.
func (r *Response) Cookies() *Cookies { return r.headers.Cookies() }

// Body returns the body as it was provided.
func (r *Response) Body() any { return r.body }

// AddFinisher queues a finisher. Finishers run in the order they were added.
func (r *Response) AddFinisher(f Finisher) {
	r.finishers = append(r.finishers, f)
}

// Close runs the queued finishers. It stops at the first finisher that fails and returns its error, the
// failed finisher is dropped and the remaining ones stay queued for a next call. A body that is an io.Closer is
// closed once all finishers ran.
func (r *Response) Close() error {
	for len(r.finishers) > 0 {
		f := r.finishers[0]
		r.finishers = r.finishers[1:]
		if err := f(r); err != nil {
			return errors.Wrap(err, "finisher")
		}
	}

	if c, ok := r.body.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return errors.Wrap(err, "close body")
		}
	}

	return nil
}

// ServeGateway implements the [Application] interface. It sends the status and headers and returns itself as
// the result.
func (r *Response) ServeGateway(_ *Environ, start StartResponse) (Result, error) {
	if r.status.Bodyless() {
		r.headers.Del("Content-Length")
	} else if n, ok := r.contentLength(); ok {
		r.headers.SetDefault("Content-Length", strconv.Itoa(n))
	}

	if err := start(r.StatusLine(), r.headers.Pairs()); err != nil {
		return nil, errors.Wrap(err, "start response")
	}

	return r, nil
}

// Chunks iterates over the encoded body. Bodyless statuses produce no chunks.
func (r *Response) Chunks() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if r.status.Bodyless() {
			return
		}

		switch body := r.body.(type) {
		case nil:
			yield([]byte(r.status.Description()), nil)
		case []byte:
			yield(body, nil)
		case string:
			yield([]byte(body), nil)
		case [][]byte:
			for _, chunk := range body {
				if !yield(chunk, nil) {
					return
				}
			}
		case iter.Seq[[]byte]:
			yieldSeq(body, yield)
		case func(func([]byte) bool):
			yieldSeq(body, yield)
		case iter.Seq2[[]byte, error]:
			yieldSeq2(body, yield)
		case func(func([]byte, error) bool):
			yieldSeq2(body, yield)
		case io.Reader:
			for chunk, err := range readChunks(body, FileChunkSize) {
				if !yield(chunk, err) || err != nil {
					return
				}
			}
		default:
			yield(nil, errors.Wrapf(ErrBodyType, "%T", body))
		}
	}
}

func yieldSeq(seq iter.Seq[[]byte], yield func([]byte, error) bool) {
	for chunk := range seq {
		if !yield(chunk, nil) {
			return
		}
	}
}

func yieldSeq2(seq iter.Seq2[[]byte, error], yield func([]byte, error) bool) {
	for chunk, err := range seq {
		if !yield(chunk, err) || err != nil {
			return
		}
	}
}

// contentLength returns the body size when it is known upfront.
func (r *Response) contentLength() (int, bool) {
	switch body := r.body.(type) {
	case nil:
		return len(r.status.Description()), true
	case []byte:
		return len(body), true
	case string:
		return len(body), true
	default:
		return 0, false
	}
}

var redirectCodes = []Code{
	CodeMultipleChoices, CodeMovedPermanently, CodeFound, CodeSeeOther,
	CodeTemporaryRedirect, CodePermanentRedirect,
}

// Redirect creates a response that redirects to the location.
func Redirect(location string, code Code, opts ...ResponseOption) (*Response, error) {
	if !lo.Contains(redirectCodes, code) {
		return nil, errors.Newf("%d is not a valid redirect status", int(code))
	}

	r := newResponse(code, nil, opts...)
	r.headers.Set("Location", location)

	return r, nil
}

// JSON creates a response with the value encoded as its JSON body.
func JSON(code Code, v any, opts ...ResponseOption) (*Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode json body")
	}

	return FromJSON(code, data, opts...)
}

// FromJSON creates a response with an already encoded JSON body.
func FromJSON(code Code, data []byte, opts ...ResponseOption) (*Response, error) {
	r, err := NewResponse(code, data, opts...)
	if err != nil {
		return nil, err
	}

	r.headers.Set("Content-Type", "application/json")

	return r, nil
}

// HTML creates a response with an html body.
func HTML(code Code, body string, opts ...ResponseOption) (*Response, error) {
	r, err := NewResponse(code, body, opts...)
	if err != nil {
		return nil, err
	}

	r.headers.Set("Content-Type", "text/html; charset=utf-8")

	return r, nil
}

// FromFileIterator creates a response that streams the chunks as a file attachment.
func FromFileIterator(chunks iter.Seq2[[]byte, error], filename string, opts ...ResponseOption) *Response {
	r := newResponse(CodeOK, chunks, opts...)
	r.headers.SetDefault("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": filename,
	}))

	return r
}

// FromFile creates a response that streams the file at path as an attachment. The file is opened when the body
// is iterated.
func FromFile(path string, opts ...ResponseOption) (*Response, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "stat file")
	}

	if info.IsDir() {
		return nil, errors.Newf("'%s' is a directory", path)
	}

	r := FromFileIterator(fileChunks(path), filepath.Base(path), opts...)
	r.headers.SetDefault("Content-Length", strconv.FormatInt(info.Size(), 10))
	if ctype := mime.TypeByExtension(filepath.Ext(path)); ctype != "" {
		r.headers.SetDefault("Content-Type", ctype)
	}

	return r, nil
}

func fileChunks(path string) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(nil, errors.Wrap(err, "open file"))
			return
		}
		defer f.Close()

		for chunk, err := range readChunks(f, FileChunkSize) {
			if !yield(chunk, err) || err != nil {
				return
			}
		}
	}
}

// readChunks reads from rd in chunks of at most size bytes.
func readChunks(rd io.Reader, size int) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for {
			buf := make([]byte, size)
			n, err := rd.Read(buf)
			if n > 0 && !yield(buf[:n], nil) {
				return
			}

			switch {
			case errors.Is(err, io.EOF):
				return
			case err != nil:
				yield(nil, errors.Wrap(err, "read body"))
				return
			}
		}
	}
}
