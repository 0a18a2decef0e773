package bgservetest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advdv/bgate"
	"github.com/advdv/bgate/bgserve"
	"go.uber.org/zap/zaptest"
)

// CallHandler invokes a [bgate.HandlerFunc] the way a bgserve app does and returns the recorded response.
// [bgserve.Log] writes to the test log and errors are answered as they would be by the server. The test fails
// when the handler returns an error that is not a [*bgate.Error].
func CallHandler(tb testing.TB, handler bgate.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	tb.Helper()

	logs := bgate.NewTestLogger(tb)
	app := bgate.ToApplication(handler)
	node := bgate.NewNode(bgate.ResolverFunc(func(string, *bgate.Environ) (bgate.Application, error) {
		return app, nil
	}), bgate.WithLogger(logs))

	req = req.WithContext(bgserve.WithRequestLogger(req.Context(), zaptest.NewLogger(tb)))

	rec := httptest.NewRecorder()
	bgate.ToStd(node, logs).ServeHTTP(rec, req)

	if logs.NumLogUnhandledError > 0 {
		tb.Fatalf("bgservetest: handler returned an unhandled error")
	}

	return rec
}
