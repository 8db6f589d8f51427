package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/odyssey-pricing/internal/itemprices"
	"github.com/odyssey-erp/odyssey-pricing/internal/observability"
	"github.com/odyssey-erp/odyssey-pricing/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pricing/internal/pos"
	pricinghttp "github.com/odyssey-erp/odyssey-pricing/internal/pricing/http"
	"github.com/odyssey-erp/odyssey-pricing/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	PricingHandler    *pricinghttp.Handler
	ItemPricesHandler *itemprices.Handler
	POSHandler        *pos.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with Odyssey defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	if params.Config == nil || !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		if params.PricingHandler != nil {
			r.Route("/pricing", params.PricingHandler.MountRoutes)
		}
		if params.ItemPricesHandler != nil {
			r.Route("/item-prices", params.ItemPricesHandler.MountRoutes)
		}
		if params.POSHandler != nil {
			r.Route("/pos", params.POSHandler.MountRoutes)
		}
	})
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no route for "+r.Method+" "+r.URL.Path)
	})

	return r
}
