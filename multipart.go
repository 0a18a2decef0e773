package bgate

import (
	"bytes"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

const (
	// DefaultMaxHeaderSize limits the size of the headers of a single part.
	DefaultMaxHeaderSize = 16 << 10
	// MultipartChunkSize is the size of the chunks a multipart body is read in.
	MultipartChunkSize = 8192
)

type multipartState int

const (
	statePreamble multipartState = iota
	stateAfterDelimiter
	stateHeaders
	stateBody
	stateEpilogue
)

// MultipartOption configures the multipart parser.
type MultipartOption func(*Multipart)

// WithMaxPartSize limits the size of a single part's content. Zero means no limit.
func WithMaxPartSize(n int64) MultipartOption {
	return func(m *Multipart) { m.maxPartSize = n }
}

// WithMaxHeaderSize limits the size of a single part's headers.
func WithMaxHeaderSize(n int) MultipartOption {
	return func(m *Multipart) { m.maxHeaderSize = n }
}

type multipartPart struct {
	headers map[string]string
	name    string
	file    *FileUpload
	text    []byte
	size    int64
}

// Multipart incrementally parses a multipart/form-data body. The body is fed in chunks of any size, the outcome
// does not depend on how the body is chunked. A Multipart is used for a single body and is not safe for
// concurrent use.
type Multipart struct {
	delimiter     []byte
	bodyDelimiter []byte
	maxPartSize   int64
	maxHeaderSize int

	state   multipartState
	buf     []byte
	part    *multipartPart
	headLen int
	err     error

	form  *Query
	files *Files
}

// NewMultipart inits a parser for a body with the given boundary.
func NewMultipart(boundary string, opts ...MultipartOption) *Multipart {
	m := &Multipart{
		delimiter:     []byte("--" + boundary),
		bodyDelimiter: []byte("\r\n--" + boundary),
		maxHeaderSize: DefaultMaxHeaderSize,
		form:          &Query{},
		files:         &Files{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Form returns the text fields parsed so far.
func (m *Multipart) Form() *Query { return m.form }

// Files returns the file fields parsed so far.
func (m *Multipart) Files() *Files { return m.files }

// Feed parses the next chunk of the body. Once it failed, every next call returns the same error.
func (m *Multipart) Feed(chunk []byte) error {
	if m.err != nil {
		return m.err
	}

	m.buf = append(m.buf, chunk...)
	for {
		progressed, err := m.step()
		if err != nil {
			m.err = err
			return err
		}

		if !progressed {
			return nil
		}
	}
}

// Close signals the end of the body. It fails when the closing delimiter was never seen.
func (m *Multipart) Close() error {
	if m.err != nil {
		return m.err
	}

	if m.state != stateEpilogue {
		m.err = malformed("unexpected end of multipart body")
		return m.err
	}

	return nil
}

// step performs one transition and reports whether it consumed anything.
func (m *Multipart) step() (bool, error) {
	switch m.state {
	case statePreamble:
		return m.stepPreamble(), nil
	case stateAfterDelimiter:
		return m.stepAfterDelimiter()
	case stateHeaders:
		return m.stepHeaders()
	case stateBody:
		return m.stepBody()
	default:
		m.buf = m.buf[:0]
		return false, nil
	}
}

func (m *Multipart) stepPreamble() bool {
	idx := bytes.Index(m.buf, m.delimiter)
	if idx < 0 {
		if keep := len(m.delimiter) - 1; len(m.buf) > keep {
			m.buf = m.buf[len(m.buf)-keep:]
		}
		return false
	}

	m.buf = m.buf[idx+len(m.delimiter):]
	m.state = stateAfterDelimiter

	return true
}

func (m *Multipart) stepAfterDelimiter() (bool, error) {
	trimmed := bytes.TrimLeft(m.buf, " \t")
	if len(trimmed) < 2 {
		return false, nil
	}

	switch {
	case trimmed[0] == '-' && trimmed[1] == '-':
		m.state = stateEpilogue
	case trimmed[0] == '\r' && trimmed[1] == '\n':
		m.state = stateHeaders
		m.part = &multipartPart{headers: map[string]string{}}
		m.headLen = 0
	default:
		return false, malformed("invalid multipart delimiter")
	}

	m.buf = trimmed[2:]

	return true, nil
}

func (m *Multipart) stepHeaders() (bool, error) {
	idx := bytes.Index(m.buf, []byte("\r\n"))
	if idx < 0 {
		if m.headLen+len(m.buf) > m.maxHeaderSize {
			return false, malformed("multipart headers too large")
		}
		return false, nil
	}

	line := m.buf[:idx]
	m.buf = m.buf[idx+2:]
	m.headLen += idx + 2
	if m.headLen > m.maxHeaderSize {
		return false, malformed("multipart headers too large")
	}

	if len(line) == 0 {
		if err := m.headersComplete(); err != nil {
			return false, err
		}

		m.state = stateBody
		return true, nil
	}

	name, value, ok := strings.Cut(string(line), ":")
	if !ok {
		return false, malformed("invalid multipart header line")
	}

	m.part.headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)

	return true, nil
}

func (m *Multipart) stepBody() (bool, error) {
	idx := bytes.Index(m.buf, m.bodyDelimiter)
	if idx < 0 {
		safe := len(m.buf) - (len(m.bodyDelimiter) - 1)
		if safe <= 0 {
			return false, nil
		}

		if err := m.data(m.buf[:safe]); err != nil {
			return false, err
		}

		m.buf = m.buf[safe:]
		return false, nil
	}

	if err := m.data(m.buf[:idx]); err != nil {
		return false, err
	}

	m.buf = m.buf[idx+len(m.bodyDelimiter):]
	if err := m.partComplete(); err != nil {
		return false, err
	}

	m.state = stateAfterDelimiter

	return true, nil
}

func (m *Multipart) headersComplete() error {
	disposition, params := parseDisposition(m.part.headers["content-disposition"])
	if disposition == "" {
		return malformed("Content-Disposition is missing.")
	}

	m.part.name, _ = params.Get("name")
	ctype, isFile := m.part.headers["content-type"]
	if isFile {
		m.part.file = &FileUpload{
			Filename:    dispositionFilename(params),
			ContentType: ctype,
			Params:      params,
		}
	}

	return nil
}

func (m *Multipart) data(p []byte) error {
	if len(p) == 0 {
		return nil
	}

	m.part.size += int64(len(p))
	if m.maxPartSize > 0 && m.part.size > m.maxPartSize {
		return malformed("multipart part too large")
	}

	if m.part.file != nil {
		m.part.file.write(p)
	} else {
		m.part.text = append(m.part.text, p...)
	}

	return nil
}

func (m *Multipart) partComplete() error {
	part := m.part
	m.part = nil

	if part.file == nil {
		if !utf8.Valid(part.text) {
			return malformed("multipart field '%s' is not valid utf-8", part.name)
		}

		m.form.Add(part.name, string(part.text))
		return nil
	}

	if part.file.Filename == "" {
		if part.file.Size == 0 {
			return nil // an empty file without a name is what browsers send for an empty input
		}
		part.file.Filename = uuid.NewString()
	}

	m.files.Add(part.name, part.file)

	return nil
}

// parseDisposition parses a Content-Disposition header value.
func parseDisposition(header string) (string, Options) {
	if strings.TrimSpace(header) == "" {
		return "", nil
	}

	ct, err := ParseContentType(header)
	if err != nil {
		return "", nil
	}

	return ct.MimeType, ct.Options
}

// dispositionFilename returns the filename parameter, preferring the extended "filename*" notation.
func dispositionFilename(params Options) string {
	if ext, ok := params.Get("filename*"); ok {
		if name, err := decodeExtValue(ext); err == nil {
			return name
		}
	}

	name, _ := params.Get("filename")

	return name
}

// decodeExtValue decodes an extended parameter value, e.g: UTF-8''na%C3%AFve.txt.
func decodeExtValue(v string) (string, error) {
	charset, rest, ok := strings.Cut(v, "'")
	if !ok {
		return "", errors.New("missing charset")
	}

	_, encoded, ok := strings.Cut(rest, "'")
	if !ok {
		return "", errors.New("missing language")
	}

	raw, err := url.PathUnescape(encoded)
	if err != nil {
		return "", errors.Wrap(err, "unescape")
	}

	return decodeCharset([]byte(raw), charset)
}
