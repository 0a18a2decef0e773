package bgate_test

import (
	"testing"

	"github.com/advdv/bgate"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCode(t *testing.T) {
	err1 := bgate.NewError(bgate.CodeBadRequest, errors.New("foo"))
	require.Equal(t, bgate.Code(400), err1.Code())
	require.Equal(t, bgate.CodeBadRequest, bgate.CodeOf(err1))
	require.Equal(t, "Bad Request: foo", err1.Error())

	require.Equal(t, bgate.CodeUnknown, bgate.CodeOf(errors.New("bar")))
	require.Equal(t, "Unknown: rab", bgate.NewError(900, errors.New("rab")).Error())
}

func TestErrorMessage(t *testing.T) {
	t.Run("defaults to the status description", func(t *testing.T) {
		err := bgate.NewError(bgate.CodeNotFound, nil)
		assert.Equal(t, "Nothing matches the given URI", err.Message())
		assert.NoError(t, err.Unwrap())
	})

	t.Run("formats the message", func(t *testing.T) {
		err := bgate.Errorf(bgate.CodeConflict, "item %d exists", 5)
		assert.Equal(t, "item 5 exists", err.Message())
		assert.Equal(t, "Conflict: item 5 exists", err.Error())
	})

	t.Run("survives wrapping", func(t *testing.T) {
		err := errors.Wrap(bgate.NewError(bgate.CodeForbidden, nil), "handler")
		assert.Equal(t, bgate.CodeForbidden, bgate.CodeOf(err))
	})
}

func TestErrorBytes(t *testing.T) {
	err := bgate.NewError(bgate.CodeBadRequest, errors.New("nope"))
	assert.Equal(t, "HTTP/1.1 400 Bad Request\r\nContent-Length: 4\r\n\r\nnope", string(err.Bytes()))

	unknown := bgate.NewError(599, errors.New("x"))
	assert.Equal(t, "HTTP/1.1 599 Unknown\r\nContent-Length: 1\r\n\r\nx", string(unknown.Bytes()))
}

func TestErrorResponse(t *testing.T) {
	resp := bgate.NewError(bgate.CodeTeapot, errors.New("short and stout")).Response()
	assert.Equal(t, bgate.CodeTeapot, resp.Status())
	assert.Equal(t, "short and stout", resp.Body())
}

func TestCode(t *testing.T) {
	for _, tt := range []struct {
		code     bgate.Code
		line     string
		bodyless bool
		valid    bool
	}{
		{bgate.CodeContinue, "100 Continue", true, true},
		{bgate.CodeOK, "200 OK", false, true},
		{bgate.CodeNoContent, "204 No Content", true, true},
		{bgate.CodeNotModified, "304 Not Modified", true, true},
		{bgate.CodeNotFound, "404 Not Found", false, true},
		{bgate.Code(799), "799 Unknown", false, false},
	} {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.line, tt.code.String())
			assert.Equal(t, tt.bodyless, tt.code.Bodyless())
			assert.Equal(t, tt.valid, tt.code.Valid())
		})
	}

	assert.Equal(t, "Request accepted, processing continues off-line", bgate.CodeAccepted.Description())
	assert.Empty(t, bgate.Code(799).Description())
}
