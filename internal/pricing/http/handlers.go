package pricinghttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-pricing/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pricing/internal/pricing"
)

// Resolver is the pricing capability the handler depends on.
type Resolver interface {
	Resolve(ctx context.Context, req pricing.Request) (pricing.Result, error)
	ResolveBatch(ctx context.Context, reqs []pricing.Request) ([]pricing.Result, error)
}

// Handler exposes price resolution over JSON.
type Handler struct {
	logger    *slog.Logger
	resolver  Resolver
	validator *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, resolver Resolver) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, resolver: resolver, validator: httpx.NewValidator()}
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	var body ResolveRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.ValidateStruct(h.validator, body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	direction, err := pricing.ParseDirection(body.Direction)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	date, err := parseDate(body.Date)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	party := strings.TrimSpace(body.Party)

	itemCode := strings.TrimSpace(body.ItemCode)
	res, err := h.resolver.Resolve(r.Context(), pricing.Request{
		ItemCode:  itemCode,
		Direction: direction,
		Party:     party,
		Date:      date,
	})
	if err != nil {
		h.respondResolveError(w, r, err, slog.String("item_code", itemCode))
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(itemCode, res, direction, party))
}

func (h *Handler) handleResolveBatch(w http.ResponseWriter, r *http.Request) {
	var body BatchRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.ValidateStruct(h.validator, body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	direction, err := pricing.ParseDirection(body.Direction)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	date, err := parseDate(body.Date)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	party := strings.TrimSpace(body.Party)
	batchID := uuid.NewString()

	reqs := make([]pricing.Request, len(body.ItemCodes))
	for i, code := range body.ItemCodes {
		reqs[i] = pricing.Request{ItemCode: strings.TrimSpace(code), Direction: direction, Party: party, Date: date}
	}
	results, err := h.resolver.ResolveBatch(r.Context(), reqs)
	if err != nil {
		h.respondResolveError(w, r, err, slog.String("batch_id", batchID))
		return
	}

	resp := BatchResponse{
		BatchID:   batchID,
		Direction: string(direction),
		Party:     party,
		Results:   make([]ResultResponse, len(results)),
		Summary:   pricing.Summarize(direction, party, results),
	}
	for i, res := range results {
		resp.Results[i] = toResponse(reqs[i].ItemCode, res, direction, party)
	}
	h.logger.Info("price batch resolved",
		slog.String("batch_id", batchID),
		slog.String("direction", string(direction)),
		slog.Int("items", len(results)),
	)
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) respondResolveError(w http.ResponseWriter, r *http.Request, err error, attr slog.Attr) {
	switch {
	case errors.Is(err, pricing.ErrStoreUnavailable):
		h.logger.ErrorContext(r.Context(), "price resolution failed", slog.Any("error", err), attr)
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUnavailable, err))
	case errors.Is(err, pricing.ErrInvalidDirection):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
	default:
		h.logger.ErrorContext(r.Context(), "price resolution failed", slog.Any("error", err), attr)
		httpx.RespondError(w, err)
	}
}
