package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pricing/internal/observability"
	"github.com/odyssey-erp/odyssey-pricing/internal/pricing"
	pricinghttp "github.com/odyssey-erp/odyssey-pricing/internal/pricing/http"
	"github.com/odyssey-erp/odyssey-pricing/jobs"
)

type fixedResolver struct{}

func (fixedResolver) Resolve(ctx context.Context, req pricing.Request) (pricing.Result, error) {
	return pricing.Result{Rate: decimal.NewFromInt(10), Source: pricing.SourceGeneral, RecordID: 1}, nil
}

func (fixedResolver) ResolveBatch(ctx context.Context, reqs []pricing.Request) ([]pricing.Result, error) {
	out := make([]pricing.Result, len(reqs))
	for i := range reqs {
		out[i], _ = fixedResolver{}.Resolve(ctx, reqs[i])
	}
	return out, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(RouterParams{
		Logger:         logger,
		Config:         &Config{AppEnv: "production", RateLimitPerMinute: 1000},
		Metrics:        observability.NewMetrics(),
		PricingHandler: pricinghttp.NewHandler(logger, fixedResolver{}),
		JobHandler:     jobs.NewHandler(nil, logger),
	})
}

func TestRouterHealthAndSecurityHeaders(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
}

func TestRouterMountsPricingAndJobs(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/pricing/resolve", strings.NewReader(`{"item_code":"A","direction":"Selling"}`))
	req.Header.Set("X-Forwarded-Proto", "https")
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"source":"General"`)

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/jobs/health", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "odyssey_http_requests_total")
}

func TestRouterUnknownRouteIsProblem(t *testing.T) {
	router := newTestRouter(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/item-prices", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{PGDSN: "postgres://x", RateLimitPerMinute: 1, PricingBatchConcurrency: 1, POSPriceCacheTTL: 1, POSAllPricesTTL: 1}
	assert.NoError(t, cfg.Validate())

	cfg.PricingBatchConcurrency = 0
	assert.Error(t, cfg.Validate())
}
