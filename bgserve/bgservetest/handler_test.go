package bgservetest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advdv/bgate"
	"github.com/advdv/bgate/bgserve"
	"github.com/advdv/bgate/bgserve/bgservetest"
	"github.com/stretchr/testify/assert"
)

func TestCallHandler(t *testing.T) {
	t.Run("records the response", func(t *testing.T) {
		rec := bgservetest.CallHandler(t, func(ctx context.Context, r *bgate.Request) (*bgate.Response, error) {
			bgserve.Log(ctx).Info("called")
			return bgate.NewResponse(bgate.CodeAccepted, "queued "+r.Query().Encode())
		}, httptest.NewRequest(http.MethodGet, "/?job=1", nil))

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, "queued job=1", rec.Body.String())
	})

	t.Run("answers errors like the server", func(t *testing.T) {
		rec := bgservetest.CallHandler(t, func(context.Context, *bgate.Request) (*bgate.Response, error) {
			return nil, bgate.Errorf(bgate.CodeConflict, "already exists")
		}, httptest.NewRequest(http.MethodPost, "/", nil))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "already exists", rec.Body.String())
	})
}
