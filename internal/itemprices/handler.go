package itemprices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pricing/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pricing/internal/pricing"
)

const dateLayout = "2006-01-02"

// Maintainer is the service surface used by Handler.
type Maintainer interface {
	List(ctx context.Context, filter ListFilter) ([]pricing.PriceRecord, error)
	Get(ctx context.Context, id int64) (pricing.PriceRecord, error)
	Create(ctx context.Context, in Input) (pricing.PriceRecord, error)
	Update(ctx context.Context, id int64, in Input) (pricing.PriceRecord, error)
	Delete(ctx context.Context, id int64) error
}

// Handler serves the item price JSON API.
type Handler struct {
	logger  *slog.Logger
	service Maintainer
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service Maintainer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the CRUD endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
	})
}

type priceRequest struct {
	ItemCode   string `json:"item_code"`
	Selling    bool   `json:"selling"`
	Buying     bool   `json:"buying"`
	Customer   string `json:"customer"`
	Supplier   string `json:"supplier"`
	IsDefault  bool   `json:"is_default_price"`
	Rate       string `json:"rate"`
	ValidFrom  string `json:"valid_from"`
	ValidUntil string `json:"valid_until"`
	Enabled    *bool  `json:"enabled"`
}

type priceResponse struct {
	ID         int64   `json:"id"`
	ItemCode   string  `json:"item_code"`
	Selling    bool    `json:"selling"`
	Buying     bool    `json:"buying"`
	Customer   string  `json:"customer,omitempty"`
	Supplier   string  `json:"supplier,omitempty"`
	IsDefault  bool    `json:"is_default_price"`
	Rate       string  `json:"rate"`
	ValidFrom  *string `json:"valid_from"`
	ValidUntil *string `json:"valid_until"`
	Enabled    bool    `json:"enabled"`
	Modified   string  `json:"modified"`
}

func (req priceRequest) input() (Input, error) {
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		return Input{}, &ValidationError{Field: "rate", Message: "rate must be a decimal number"}
	}
	from, err := parseOptionalDate("valid_from", req.ValidFrom)
	if err != nil {
		return Input{}, err
	}
	until, err := parseOptionalDate("valid_until", req.ValidUntil)
	if err != nil {
		return Input{}, err
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	return Input{
		ItemCode:   req.ItemCode,
		Selling:    req.Selling,
		Buying:     req.Buying,
		Customer:   req.Customer,
		Supplier:   req.Supplier,
		IsDefault:  req.IsDefault,
		Rate:       rate,
		ValidFrom:  from,
		ValidUntil: until,
		Enabled:    enabled,
	}, nil
}

func parseOptionalDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, &ValidationError{Field: field, Message: field + " must be a YYYY-MM-DD date"}
	}
	return &d, nil
}

func toResponse(rec pricing.PriceRecord) priceResponse {
	format := func(t *time.Time) *string {
		if t == nil {
			return nil
		}
		s := t.Format(dateLayout)
		return &s
	}
	return priceResponse{
		ID:         rec.ID,
		ItemCode:   rec.ItemCode,
		Selling:    rec.Selling,
		Buying:     rec.Buying,
		Customer:   rec.Customer,
		Supplier:   rec.Supplier,
		IsDefault:  rec.IsDefault,
		Rate:       rec.Rate.String(),
		ValidFrom:  format(rec.ValidFrom),
		ValidUntil: format(rec.ValidUntil),
		Enabled:    rec.Enabled,
		Modified:   rec.Modified.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		ItemCode: q.Get("item_code"),
		Customer: q.Get("customer"),
		Supplier: q.Get("supplier"),
	}
	var err error
	if filter.Selling, err = parseOptionalBool(q.Get("selling")); err != nil {
		h.respond(w, r, err)
		return
	}
	if filter.Buying, err = parseOptionalBool(q.Get("buying")); err != nil {
		h.respond(w, r, err)
		return
	}
	if raw := q.Get("limit"); raw != "" {
		if filter.Limit, err = strconv.Atoi(raw); err != nil {
			h.respond(w, r, &ValidationError{Field: "limit", Message: "limit must be an integer"})
			return
		}
	}

	records, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	out := make([]priceResponse, len(records))
	for i, rec := range records {
		out[i] = toResponse(rec)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"item_prices": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(rec))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(r)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	rec, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(rec))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	in, err := decodeInput(r)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	rec, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(rec))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respond(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeInput(r *http.Request) (Input, error) {
	var req priceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return Input{}, err
	}
	return req.input()
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrNotFound
	}
	return id, nil
}

func parseOptionalBool(raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &ValidationError{Field: "filter", Message: fmt.Sprintf("invalid boolean %q", raw)}
	}
	return &v, nil
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: item price", httpx.ErrNotFound))
	case errors.Is(err, ErrInvalid):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
	case errors.Is(err, ErrDuplicate):
		detail := strings.TrimPrefix(err.Error(), ErrDuplicate.Error()+": ")
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrDuplicate, detail))
	case errors.Is(err, httpx.ErrValidation):
		httpx.RespondError(w, err)
	default:
		h.logger.ErrorContext(r.Context(), "item price request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

