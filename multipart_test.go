package bgate_test

import (
	"strings"
	"testing"

	"github.com/advdv/bgate"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBoundary = "xYzZY"

// multipartBody joins the parts into a multipart body with the test boundary.
func multipartBody(parts ...string) string {
	var b strings.Builder
	b.WriteString("preamble is ignored\r\n")
	for _, p := range parts {
		b.WriteString("--" + testBoundary + "\r\n")
		b.WriteString(p)
		b.WriteString("\r\n")
	}
	b.WriteString("--" + testBoundary + "--\r\nepilogue is ignored")

	return b.String()
}

func feedChunked(tb testing.TB, body string, size int, opts ...bgate.MultipartOption) (*bgate.Multipart, error) {
	tb.Helper()

	mp := bgate.NewMultipart(testBoundary, opts...)
	for i := 0; i < len(body); i += size {
		if err := mp.Feed([]byte(body[i:min(i+size, len(body))])); err != nil {
			return mp, err
		}
	}

	return mp, mp.Close()
}

func TestMultipart(t *testing.T) {
	body := multipartBody(
		"Content-Disposition: form-data; name=\"title\"\r\n\r\nhello\r\nworld",
		"Content-Disposition: form-data; name=\"title\"\r\n\r\n",
		"Content-Disposition: form-data; name=\"doc\"; filename=\"a.txt\"\r\n"+
			"Content-Type: text/plain\r\n\r\n--not the boundary\r\n--xYzZQ",
		"Content-Disposition: form-data; name=\"doc\"; filename=\"b.txt\"; filename*=UTF-8''na%C3%AFve.txt\r\n"+
			"Content-Type: text/plain\r\n\r\nb",
	)

	for _, size := range []int{1, 2, 3, 7, 64, len(body)} {
		mp, err := feedChunked(t, body, size)
		require.NoError(t, err, "chunk size %d", size)

		assert.Equal(t, []string{"hello\r\nworld", ""}, mp.Form().GetList("title"), "chunk size %d", size)

		docs := mp.Files().GetList("doc")
		require.Len(t, docs, 2, "chunk size %d", size)
		assert.Equal(t, "a.txt", docs[0].Filename)
		assert.Equal(t, "text/plain", docs[0].ContentType)
		assert.Equal(t, "--not the boundary\r\n--xYzZQ", string(docs[0].Bytes()))
		assert.Equal(t, "naïve.txt", docs[1].Filename)
		assert.Equal(t, int64(1), docs[1].Size)
	}
}

func TestMultipartUploads(t *testing.T) {
	t.Run("drops empty uploads without a filename", func(t *testing.T) {
		mp, err := feedChunked(t, multipartBody(
			"Content-Disposition: form-data; name=\"doc\"; filename=\"\"\r\n"+
				"Content-Type: application/octet-stream\r\n\r\n",
		), 5)
		require.NoError(t, err)
		assert.Equal(t, 0, mp.Files().Len())
	})

	t.Run("generates a filename for named content", func(t *testing.T) {
		mp, err := feedChunked(t, multipartBody(
			"Content-Disposition: form-data; name=\"doc\"\r\n"+
				"Content-Type: application/octet-stream\r\n\r\nxyz",
		), 5)
		require.NoError(t, err)

		doc, ok := mp.Files().Get("doc")
		require.True(t, ok)
		_, err = uuid.Parse(doc.Filename)
		require.NoError(t, err)
	})
}

func TestMultipartErrors(t *testing.T) {
	for _, tt := range []struct {
		name string
		body string
		opts []bgate.MultipartOption
		exp  string
	}{
		{
			name: "missing disposition",
			body: multipartBody("Content-Type: text/plain\r\n\r\nx"),
			exp:  "Content-Disposition is missing.",
		},
		{
			name: "truncated body",
			body: "--" + testBoundary + "\r\nContent-Disposition: form-data; name=\"a\"\r\n\r\nhalf",
			exp:  "unexpected end of multipart body",
		},
		{
			name: "invalid utf-8 field",
			body: multipartBody("Content-Disposition: form-data; name=\"a\"\r\n\r\n\xff"),
			exp:  "multipart field 'a' is not valid utf-8",
		},
		{
			name: "part too large",
			body: multipartBody("Content-Disposition: form-data; name=\"a\"\r\n\r\n0123456789"),
			opts: []bgate.MultipartOption{bgate.WithMaxPartSize(5)},
			exp:  "multipart part too large",
		},
		{
			name: "headers too large",
			body: multipartBody("Content-Disposition: form-data; name=\"" + strings.Repeat("a", 100) + "\"\r\n\r\nx"),
			opts: []bgate.MultipartOption{bgate.WithMaxHeaderSize(50)},
			exp:  "multipart headers too large",
		},
		{
			name: "garbage after delimiter",
			body: "--" + testBoundary + "xx\r\n",
			exp:  "invalid multipart delimiter",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			mp, err := feedChunked(t, tt.body, 3, tt.opts...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, bgate.ErrMalformed))
			assert.Contains(t, err.Error(), tt.exp)

			require.Equal(t, err, mp.Feed([]byte("more")), "errors are sticky")
		})
	}
}
