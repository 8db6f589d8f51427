package pricinghttp

import (
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-pricing/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pricing/internal/pricing"
)

const dateLayout = "2006-01-02"

// ResolveRequest is the body of POST /resolve.
type ResolveRequest struct {
	ItemCode  string `json:"item_code" validate:"required,max=140"`
	Direction string `json:"direction" validate:"required"`
	Party     string `json:"party" validate:"max=140"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// BatchRequest is the body of POST /resolve-batch.
type BatchRequest struct {
	Direction string   `json:"direction" validate:"required"`
	Party     string   `json:"party" validate:"max=140"`
	Date      string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	ItemCodes []string `json:"item_codes" validate:"required,min=1,max=500,dive,required,max=140"`
}

// ResultResponse describes one resolved line.
type ResultResponse struct {
	ItemCode string `json:"item_code"`
	Rate     string `json:"rate"`
	Source   string `json:"source"`
	Label    string `json:"label"`
	Message  string `json:"message"`
	RecordID int64  `json:"record_id,omitempty"`
}

// BatchResponse is returned by POST /resolve-batch.
type BatchResponse struct {
	BatchID   string           `json:"batch_id"`
	Direction string           `json:"direction"`
	Party     string           `json:"party,omitempty"`
	Results   []ResultResponse `json:"results"`
	Summary   string           `json:"summary"`
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date: %v", httpx.ErrValidation, err)
	}
	return d, nil
}

func toResponse(itemCode string, res pricing.Result, d pricing.Direction, party string) ResultResponse {
	return ResultResponse{
		ItemCode: itemCode,
		Rate:     res.Rate.String(),
		Source:   string(res.Source),
		Label:    pricing.Label(res.Source, d),
		Message:  pricing.Message(res, d, party),
		RecordID: res.RecordID,
	}
}
