package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPOSPriceWarmup rebuilds the cached all-items POS price map.
	TaskPOSPriceWarmup = "pos:price-warmup"
	// TaskPOSPriceInvalidate drops cached POS prices.
	TaskPOSPriceInvalidate = "pos:price-invalidate"
)

// POSPriceWarmupPayload describes why a warmup was requested.
type POSPriceWarmupPayload struct {
	Reason string `json:"reason"`
}

// POSPriceInvalidatePayload selects the cache entries to drop. An empty
// ItemCode drops every POS price.
type POSPriceInvalidatePayload struct {
	ItemCode string `json:"item_code,omitempty"`
	Customer string `json:"customer,omitempty"`
}

// NewPOSPriceWarmupTask constructs an Asynq task.
func NewPOSPriceWarmupTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(POSPriceWarmupPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPOSPriceWarmup, data), nil
}

// NewPOSPriceInvalidateTask constructs an Asynq task.
func NewPOSPriceInvalidateTask(payload POSPriceInvalidatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPOSPriceInvalidate, data), nil
}
