package bgate

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Handler serves a request by returning a response, or an error. Returning an [*Error] answers the request with
// the status and message it describes. Other errors are unexpected and are reported.
type Handler interface {
	ServeRequest(ctx context.Context, r *Request) (*Response, error)
}

// HandlerFunc allow casting a function to imple [Handler].
type HandlerFunc func(context.Context, *Request) (*Response, error)

// ServeRequest implements the [Handler] interface.
func (f HandlerFunc) ServeRequest(ctx context.Context, r *Request) (*Response, error) {
	return f(ctx, r)
}

// ToApplication converts a handler into an application. The environment is wrapped in a [Request] with the given
// options.
func ToApplication(h Handler, opts ...RequestOption) Application {
	return ApplicationFunc(func(env *Environ, start StartResponse) (Result, error) {
		req := NewRequest(env, opts...)

		resp, err := h.ServeRequest(req.Context(), req)
		if err != nil {
			return nil, err
		}

		if resp == nil {
			return nil, errors.New("handler returned no response and no error")
		}

		return resp.ServeGateway(env, start)
	})
}

// ToStd converts an application into a standard library http.Handler. The response headers are held back until
// the first chunk of the body was produced, so that an application failing before that still results in a
// clean 500 response.
func ToStd(app Application, logs Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			status  int
			headers []HeaderPair
			written bool
		)

		start := func(line string, hdrs []HeaderPair) error {
			code, err := strconv.Atoi(strings.SplitN(line, " ", 2)[0])
			if err != nil {
				return errors.Wrapf(err, "invalid status line '%s'", line)
			}

			status, headers = code, hdrs
			return nil
		}

		res, err := app.ServeGateway(FromRequest(r), start)
		if err == nil && status == 0 {
			err = errors.New("application did not start the response")
		}

		if err != nil {
			if !errors.Is(err, errReported) {
				logs.LogUnhandledError(err)
			}

			// if all fails we don't want the client to end up with a white screen so
			// we render a 500 error with the standard text.
			http.Error(w,
				http.StatusText(http.StatusInternalServerError),
				http.StatusInternalServerError)

			if res != nil {
				closeStd(res, logs)
			}
			return
		}

		defer closeStd(res, logs)

		writeHead := func() {
			for _, p := range headers {
				w.Header().Add(p.Name, p.Value)
			}

			w.WriteHeader(status)
			written = true
		}

		for chunk, err := range res.Chunks() {
			if err != nil {
				logs.LogUnhandledError(err)
				if !written {
					http.Error(w,
						http.StatusText(http.StatusInternalServerError),
						http.StatusInternalServerError)
				}
				return
			}

			if !written {
				writeHead()
			}

			if _, err := w.Write(chunk); err != nil {
				logs.LogImplicitFlushError(err)
				return
			}
		}

		if !written {
			writeHead()
		}
	})
}

func closeStd(res Result, logs Logger) {
	if err := closeResult(res); err != nil && !errors.Is(err, errReported) {
		logs.LogCloseError(err)
	}
}

// FromRequest builds the environment for a standard library request. The path is transported as latin-1, the
// way gateway servers provide it.
func FromRequest(r *http.Request) *Environ {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	vars := map[string]string{
		KeyRequestMethod: r.Method,
		KeyScriptName:    "",
		KeyPathInfo:      EncodePathInfo(r.URL.Path),
		KeyQueryString:   r.URL.RawQuery,
		KeyServerProto:   r.Proto,
		KeyRemoteAddr:    r.RemoteAddr,
		KeyURLScheme:     scheme,
	}

	vars[KeyServerName], vars[KeyServerPort] = serverNamePort(r.Host, scheme)
	if r.ContentLength >= 0 && r.Header.Get("Content-Length") != "" {
		vars[KeyContentLength] = strconv.FormatInt(r.ContentLength, 10)
	}

	if r.Host != "" {
		vars[KeyHTTPHost] = r.Host
	}

	for name, values := range r.Header {
		sep := ","
		if name == "Cookie" {
			sep = "; "
		}

		vars[HeaderKey(name)] = strings.Join(values, sep)
	}

	env := NewEnviron(r.Context(), vars, r.Body)
	if r.Body == nil || r.Body == http.NoBody {
		env.Body = strings.NewReader("")
	}

	return env
}

func serverNamePort(host, scheme string) (string, string) {
	if h, p, err := net.SplitHostPort(host); err == nil {
		return h, p
	}

	if scheme == "https" {
		return host, "443"
	}

	return host, "80"
}
