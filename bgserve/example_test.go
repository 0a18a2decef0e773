package bgserve_test

import (
	"context"

	"github.com/advdv/bgate"
	"github.com/advdv/bgate/bgserve"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Env defines the environment variables for the application.
// Embed bgserve.BaseEnvironment to get the server fields.
type Env struct {
	bgserve.BaseEnvironment
	CatalogURL string `env:"CATALOG_URL,required"`
}

// ItemHandlers contains the handlers for item operations.
type ItemHandlers struct {
	rt *bgserve.Runtime[Env]
}

func NewItemHandlers(rt *bgserve.Runtime[Env]) *ItemHandlers {
	return &ItemHandlers{rt: rt}
}

// GetItem fetches an item from the catalog service.
// Demonstrates: Log for trace-correlated logging, Runtime.NewRequest for traced outbound calls.
func (h *ItemHandlers) GetItem(ctx context.Context, r *bgate.Request) (*bgate.Response, error) {
	bgserve.Log(ctx).Info("fetching item", zap.String("id", r.Param("id")))

	var item map[string]any
	if err := h.rt.NewRequest(h.rt.Env().CatalogURL).
		Pathf("/items/%s", r.Param("id")).
		ToJSON(&item).
		Fetch(ctx); err != nil {
		return nil, err
	}

	self, _ := h.rt.Reverse("get-item", r.Param("id"))
	item["self"] = self

	return bgate.JSON(bgate.CodeOK, item)
}

// Upload persists the uploaded files.
// Demonstrates: Span for adding trace events, Runtime.Persist for upload storage.
func (h *ItemHandlers) Upload(ctx context.Context, r *bgate.Request) (*bgate.Response, error) {
	bgserve.Span(ctx).AddEvent("parsing upload")

	data, err := r.Data()
	if err != nil {
		return nil, err
	}

	stored, err := h.rt.Persist(ctx, data.Files.GetList("file")...)
	if err != nil {
		return nil, err
	}

	return bgate.JSON(bgate.CodeCreated, stored)
}

// Example demonstrates a complete bgserve application.
func Example() {
	bgserve.NewApp[Env](
		func(rt *bgate.Router, h *ItemHandlers) {
			rt.HandleFunc("GET /items/{id}", h.GetItem, "get-item")
			rt.HandleFunc("POST /uploads", h.Upload)
		},
		bgserve.WithFx(fx.Provide(NewItemHandlers)),
	).Run()
}

// ReportHandlers demonstrates AWS client injection.
type ReportHandlers struct {
	s3 *s3.Client
}

func NewReportHandlers(s3 *s3.Client) *ReportHandlers {
	return &ReportHandlers{s3: s3}
}

// HasReports checks that the reports bucket is reachable.
func (h *ReportHandlers) HasReports(ctx context.Context, _ *bgate.Request) (*bgate.Response, error) {
	if _, err := h.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String("reports")}); err != nil {
		return nil, bgate.NewError(bgate.CodeServiceUnavailable, nil)
	}

	return bgate.NewResponse(bgate.CodeNoContent, nil)
}

// Example_awsClient demonstrates AWS client injection in a fixed region.
func Example_awsClient() {
	bgserve.NewApp[Env](
		func(rt *bgate.Router, h *ReportHandlers) {
			rt.HandleFunc("HEAD /reports", h.HasReports)
		},
		bgserve.WithAWSClient(func(cfg aws.Config) *s3.Client {
			return s3.NewFromConfig(cfg)
		}, bgserve.ForRegion("eu-central-1")),
		bgserve.WithFx(fx.Provide(NewReportHandlers)),
	).Run()
}
