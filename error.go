package bgate

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
)

// Code is an error code that mirrors the http status codes. It is used for the status of every [Response] and
// to create errors that are passed around across middleware layers to handle errors structurally.
type Code int

const (
	CodeUnknown Code = 0

	CodeContinue           Code = http.StatusContinue           // RFC 9110, 15.2.1
	CodeSwitchingProtocols Code = http.StatusSwitchingProtocols // RFC 9110, 15.2.2
	CodeProcessing         Code = http.StatusProcessing         // RFC 2518, 10.1
	CodeEarlyHints         Code = http.StatusEarlyHints         // RFC 8297

	CodeOK                   Code = http.StatusOK                   // RFC 9110, 15.3.1
	CodeCreated              Code = http.StatusCreated              // RFC 9110, 15.3.2
	CodeAccepted             Code = http.StatusAccepted             // RFC 9110, 15.3.3
	CodeNonAuthoritativeInfo Code = http.StatusNonAuthoritativeInfo // RFC 9110, 15.3.4
	CodeNoContent            Code = http.StatusNoContent            // RFC 9110, 15.3.5
	CodeResetContent         Code = http.StatusResetContent         // RFC 9110, 15.3.6
	CodePartialContent       Code = http.StatusPartialContent       // RFC 9110, 15.3.7

	CodeMultipleChoices   Code = http.StatusMultipleChoices   // RFC 9110, 15.4.1
	CodeMovedPermanently  Code = http.StatusMovedPermanently  // RFC 9110, 15.4.2
	CodeFound             Code = http.StatusFound             // RFC 9110, 15.4.3
	CodeSeeOther          Code = http.StatusSeeOther          // RFC 9110, 15.4.4
	CodeNotModified       Code = http.StatusNotModified       // RFC 9110, 15.4.5
	CodeUseProxy          Code = http.StatusUseProxy          // RFC 9110, 15.4.6
	CodeTemporaryRedirect Code = http.StatusTemporaryRedirect // RFC 9110, 15.4.8
	CodePermanentRedirect Code = http.StatusPermanentRedirect // RFC 9110, 15.4.9

	CodeBadRequest                   Code = http.StatusBadRequest                   // RFC 9110, 15.5.1
	CodeUnauthorized                 Code = http.StatusUnauthorized                 // RFC 9110, 15.5.2
	CodePaymentRequired              Code = http.StatusPaymentRequired              // RFC 9110, 15.5.3
	CodeForbidden                    Code = http.StatusForbidden                    // RFC 9110, 15.5.4
	CodeNotFound                     Code = http.StatusNotFound                     // RFC 9110, 15.5.5
	CodeMethodNotAllowed             Code = http.StatusMethodNotAllowed             // RFC 9110, 15.5.6
	CodeNotAcceptable                Code = http.StatusNotAcceptable                // RFC 9110, 15.5.7
	CodeProxyAuthRequired            Code = http.StatusProxyAuthRequired            // RFC 9110, 15.5.8
	CodeRequestTimeout               Code = http.StatusRequestTimeout               // RFC 9110, 15.5.9
	CodeConflict                     Code = http.StatusConflict                     // RFC 9110, 15.5.10
	CodeGone                         Code = http.StatusGone                         // RFC 9110, 15.5.11
	CodeLengthRequired               Code = http.StatusLengthRequired               // RFC 9110, 15.5.12
	CodePreconditionFailed           Code = http.StatusPreconditionFailed           // RFC 9110, 15.5.13
	CodeRequestEntityTooLarge        Code = http.StatusRequestEntityTooLarge        // RFC 9110, 15.5.14
	CodeRequestURITooLong            Code = http.StatusRequestURITooLong            // RFC 9110, 15.5.15
	CodeUnsupportedMediaType         Code = http.StatusUnsupportedMediaType         // RFC 9110, 15.5.16
	CodeRequestedRangeNotSatisfiable Code = http.StatusRequestedRangeNotSatisfiable // RFC 9110, 15.5.17
	CodeExpectationFailed            Code = http.StatusExpectationFailed            // RFC 9110, 15.5.18
	CodeTeapot                       Code = http.StatusTeapot                       // RFC 9110, 15.5.19 (Unused)
	CodeMisdirectedRequest           Code = http.StatusMisdirectedRequest           // RFC 9110, 15.5.20
	CodeUnprocessableEntity          Code = http.StatusUnprocessableEntity          // RFC 9110, 15.5.21
	CodeLocked                       Code = http.StatusLocked                       // RFC 4918, 11.3
	CodeFailedDependency             Code = http.StatusFailedDependency             // RFC 4918, 11.4
	CodeTooEarly                     Code = http.StatusTooEarly                     // RFC 8470, 5.2.
	CodeUpgradeRequired              Code = http.StatusUpgradeRequired              // RFC 9110, 15.5.22
	CodePreconditionRequired         Code = http.StatusPreconditionRequired         // RFC 6585, 3
	CodeTooManyRequests              Code = http.StatusTooManyRequests              // RFC 6585, 4
	CodeRequestHeaderFieldsTooLarge  Code = http.StatusRequestHeaderFieldsTooLarge  // RFC 6585, 5
	CodeUnavailableForLegalReasons   Code = http.StatusUnavailableForLegalReasons   // RFC 7725, 3

	CodeInternalServerError           Code = http.StatusInternalServerError           // RFC 9110, 15.6.1
	CodeNotImplemented                Code = http.StatusNotImplemented                // RFC 9110, 15.6.2
	CodeBadGateway                    Code = http.StatusBadGateway                    // RFC 9110, 15.6.3
	CodeServiceUnavailable            Code = http.StatusServiceUnavailable            // RFC 9110, 15.6.4
	CodeGatewayTimeout                Code = http.StatusGatewayTimeout                // RFC 9110, 15.6.5
	CodeHTTPVersionNotSupported       Code = http.StatusHTTPVersionNotSupported       // RFC 9110, 15.6.6
	CodeVariantAlsoNegotiates         Code = http.StatusVariantAlsoNegotiates         // RFC 2295, 8.1
	CodeInsufficientStorage           Code = http.StatusInsufficientStorage           // RFC 4918, 11.5
	CodeLoopDetected                  Code = http.StatusLoopDetected                  // RFC 5842, 7.2
	CodeNotExtended                   Code = http.StatusNotExtended                   // RFC 2774, 7
	CodeNetworkAuthenticationRequired Code = http.StatusNetworkAuthenticationRequired // RFC 6585, 6
)

// Error describes an http error. Handlers return it to have the dispatcher answer with its status and message,
// every other error is considered unexpected.
type Error struct {
	code Code
	msg  string
	err  error
}

// NewError inits a new error given the error code. The message is taken from the underlying error, or the
// description of the status when it is nil.
func NewError(c Code, underlying error) *Error {
	e := &Error{code: c, err: underlying}
	if underlying != nil {
		e.msg = underlying.Error()
	} else {
		e.msg = c.Description()
	}

	return e
}

// Errorf inits a new error with a formatted message.
func Errorf(c Code, format string, args ...any) *Error {
	return NewError(c, errors.Newf(format, args...))
}

func (e *Error) Code() Code { return e.code }

// Message is the body of the response that answers the error.
func (e *Error) Message() string { return e.msg }

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Error() string {
	status := http.StatusText(int(e.Code()))
	if status == "" {
		status = "Unknown"
	}

	return fmt.Sprintf("%s: %s", status, e.msg)
}

// Bytes renders the error as a raw HTTP/1.1 response.
func (e *Error) Bytes() []byte {
	phrase := e.code.Phrase()
	if phrase == "" {
		phrase = "Unknown"
	}

	b := make([]byte, 0, 64+len(e.msg))
	b = append(b, "HTTP/1.1 "...)
	b = strconv.AppendInt(b, int64(e.code), 10)
	b = append(b, ' ')
	b = append(b, phrase...)
	b = append(b, "\r\nContent-Length: "...)
	b = strconv.AppendInt(b, int64(len(e.msg)), 10)
	b = append(b, "\r\n\r\n"...)

	return append(b, e.msg...)
}

// Response turns the error into the response that answers it.
func (e *Error) Response() *Response {
	return newResponse(e.code, e.msg)
}

// CodeOf returns the error's status code if it is or wraps an [*Error] and
// [CodeUnknown] otherwise.
func CodeOf(err error) Code {
	if httpErr, ok := asError(err); ok {
		return httpErr.Code()
	}
	return CodeUnknown
}

// asError uses errors.As to unwrap any error and look for an *Error.
func asError(err error) (*Error, bool) {
	var httpErr *Error
	ok := errors.As(err, &httpErr)
	return httpErr, ok
}

var (
	// ErrMalformed marks errors caused by data the client sent. The parser [Registry] answers them with a
	// [CodeBadRequest] error that carries the message.
	ErrMalformed = errors.New("malformed")

	// ErrBodyType is returned while iterating a [Response] whose body is of an unsupported type.
	ErrBodyType = errors.New("unsupported body type")
)

// malformed creates a new error that is marked as [ErrMalformed].
func malformed(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrMalformed)
}
