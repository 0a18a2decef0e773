package bgate

import (
	"net/http"
	"strconv"
)

// descriptions holds the long-form explanation of each status. It is used as
// the body of a response that was created without one.
var descriptions = map[Code]string{
	CodeContinue:           "Request received, please continue",
	CodeSwitchingProtocols: "Switching to new protocol; obey Upgrade header",

	CodeOK:                   "Request fulfilled, document follows",
	CodeCreated:              "Document created, URL follows",
	CodeAccepted:             "Request accepted, processing continues off-line",
	CodeNonAuthoritativeInfo: "Request fulfilled from cache",
	CodeNoContent:            "Request fulfilled, nothing follows",
	CodeResetContent:         "Clear input form for further input",
	CodePartialContent:       "Partial content follows",

	CodeMultipleChoices:   "Object has several resources -- see URI list",
	CodeMovedPermanently:  "Object moved permanently -- see URI list",
	CodeFound:             "Object moved temporarily -- see URI list",
	CodeSeeOther:          "Object moved -- see Method and URL list",
	CodeNotModified:       "Document has not changed since given time",
	CodeUseProxy:          "You must use proxy specified in Location to access this resource",
	CodeTemporaryRedirect: "Object moved temporarily -- see URI list",
	CodePermanentRedirect: "Object moved permanently -- see URI list",

	CodeBadRequest:                   "Bad request syntax or unsupported method",
	CodeUnauthorized:                 "No permission -- see authorization schemes",
	CodePaymentRequired:              "No payment -- see charging schemes",
	CodeForbidden:                    "Request forbidden -- authorization will not help",
	CodeNotFound:                     "Nothing matches the given URI",
	CodeMethodNotAllowed:             "Specified method is invalid for this resource",
	CodeNotAcceptable:                "URI not available in preferred format",
	CodeProxyAuthRequired:            "You must authenticate with this proxy before proceeding",
	CodeRequestTimeout:               "Request timed out; try again later",
	CodeConflict:                     "Request conflict",
	CodeGone:                         "URI no longer exists and has been permanently removed",
	CodeLengthRequired:               "Client must specify Content-Length",
	CodePreconditionFailed:           "Precondition in headers is false",
	CodeRequestEntityTooLarge:        "Entity is too large",
	CodeRequestURITooLong:            "URI is too long",
	CodeUnsupportedMediaType:         "Entity body in unsupported format",
	CodeRequestedRangeNotSatisfiable: "Cannot satisfy request range",
	CodeExpectationFailed:            "Expect condition could not be satisfied",
	CodeTeapot:                       "Server refuses to brew coffee because it is a teapot.",
	CodeMisdirectedRequest:           "Server is not able to produce a response",
	CodePreconditionRequired:         "The origin server requires the request to be conditional",
	CodeTooManyRequests: "The user has sent too many requests in " +
		"a given amount of time (\"rate limiting\")",
	CodeRequestHeaderFieldsTooLarge: "The server is unwilling to process the request " +
		"because its header fields are too large",
	CodeUnavailableForLegalReasons: "The server is denying access to the " +
		"resource as a consequence of a legal demand",

	CodeInternalServerError:     "Server got itself in trouble",
	CodeNotImplemented:          "Server does not support this operation",
	CodeBadGateway:              "Invalid responses from another server/proxy",
	CodeServiceUnavailable:      "The server cannot process the request due to a high load",
	CodeGatewayTimeout:          "The gateway server did not receive a timely response",
	CodeHTTPVersionNotSupported: "Cannot fulfill request",
	CodeNetworkAuthenticationRequired: "The client needs to authenticate to gain " +
		"network access",
}

// Valid reports whether the code is a registered http status.
func (c Code) Valid() bool {
	return http.StatusText(int(c)) != ""
}

// Phrase returns the reason phrase, e.g: "Not Found".
func (c Code) Phrase() string {
	return http.StatusText(int(c))
}

// Description returns the long-form description of the status. Statuses
// without one return an empty string.
func (c Code) Description() string {
	return descriptions[c]
}

// Bodyless reports whether a response with this status must not carry a body.
func (c Code) Bodyless() bool {
	return (c >= 100 && c < 200) || c == CodeNoContent || c == CodeNotModified
}

// String returns the status line as passed to [StartResponse], e.g: "404 Not Found".
func (c Code) String() string {
	phrase := c.Phrase()
	if phrase == "" {
		phrase = "Unknown"
	}

	return strconv.Itoa(int(c)) + " " + phrase
}
