package pos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pricing/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pricing/internal/pricing"
)

const maxItemCodes = 500

// PriceSource is the Service surface used by Handler.
type PriceSource interface {
	PriceMap(ctx context.Context, itemCodes []string, customer string) (map[string]decimal.Decimal, error)
	AllSellingPrices(ctx context.Context) (map[string]decimal.Decimal, error)
}

// Handler serves POS price maps.
type Handler struct {
	logger *slog.Logger
	prices PriceSource
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, prices PriceSource) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, prices: prices}
}

// MountRoutes registers the POS endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/prices", h.priceMap)
	r.Get("/prices/all", h.allPrices)
}

func (h *Handler) priceMap(w http.ResponseWriter, r *http.Request) {
	var codes []string
	for _, raw := range r.URL.Query()["item_codes"] {
		for _, code := range strings.Split(raw, ",") {
			if code = strings.TrimSpace(code); code != "" {
				codes = append(codes, code)
			}
		}
	}
	if len(codes) == 0 {
		httpx.JSON(w, http.StatusOK, map[string]any{"prices": map[string]string{}})
		return
	}
	if len(codes) > maxItemCodes {
		httpx.RespondError(w, fmt.Errorf("%w: at most %d item codes per request", httpx.ErrValidation, maxItemCodes))
		return
	}

	prices, err := h.prices.PriceMap(r.Context(), codes, r.URL.Query().Get("customer"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"prices": encode(prices)})
}

func (h *Handler) allPrices(w http.ResponseWriter, r *http.Request) {
	prices, err := h.prices.AllSellingPrices(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"prices": encode(prices)})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "pos prices failed", slog.Any("error", err))
	if errors.Is(err, pricing.ErrStoreUnavailable) {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUnavailable, err))
		return
	}
	httpx.RespondError(w, err)
}

func encode(prices map[string]decimal.Decimal) map[string]string {
	out := make(map[string]string, len(prices))
	for code, rate := range prices {
		out[code] = rate.String()
	}
	return out
}
