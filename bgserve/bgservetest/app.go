// Package bgservetest provides test helpers for bgserve applications.
//
// [New] builds the dependency graph of [bgserve.NewApp] on top of [fxtest.App], so errors in the graph fail the
// test right away. Requests can be served in-process with [App.Do], without starting the listener:
//
//	bgservetest.SetBaseEnv(t, 18081)
//	app := bgservetest.New[TestEnv](t, routing, bgserve.WithFx(...))
//	rec := app.Do(httptest.NewRequest(http.MethodGet, "/items/1", nil))
//
// Call RequireStart and RequireStop to run the app against its real port instead.
package bgservetest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advdv/bgate"
	"github.com/advdv/bgate/bgserve"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

// App is a bgserve application under test.
type App struct {
	*fxtest.App
	server *http.Server
	router *bgate.Router
}

// New creates a test app with the same dependency graph as [bgserve.NewApp].
func New[E bgserve.Environment](tb testing.TB, routing any, opts ...bgserve.Option) *App {
	app := &App{}
	app.App = fxtest.New(tb, append(bgserve.FxOptions[E](routing, opts...),
		fx.Populate(&app.server, &app.router))...)

	return app
}

// Do serves the request with the handler of the app's server. The full middleware chain runs, so the response is
// what a client of the started app would receive.
func (a *App) Do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.server.Handler.ServeHTTP(rec, req)

	return rec
}

// Reverse returns the path of a named route of the app.
func (a *App) Reverse(name string, params ...string) (string, error) {
	return a.router.Reverse(name, params...)
}
