package alert

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task types processed by the worker.
const (
	// TaskTypeSendWelcome delivers one queued welcome email.
	TaskTypeSendWelcome = "alert:welcome"

	// TaskTypeWeatherRun and TaskTypePriceRun trigger a full dispatch run.
	// They are enqueued by the periodic scheduler and carry no payload.
	TaskTypeWeatherRun = "alert:weather:run"
	TaskTypePriceRun   = "alert:price:run"
)

// SendWelcomePayload is the serialized payload for a welcome email task.
type SendWelcomePayload struct {
	DeliveryID string `json:"delivery_id"`
}

// NewSendWelcomeTask creates an asynq task for sending a queued welcome email.
func NewSendWelcomeTask(deliveryID string) (*asynq.Task, error) {
	payload, err := json.Marshal(SendWelcomePayload{DeliveryID: deliveryID})
	if err != nil {
		return nil, fmt.Errorf("marshaling task payload: %w", err)
	}
	return asynq.NewTask(TaskTypeSendWelcome, payload), nil
}

// ParseSendWelcomePayload deserializes the task payload.
func ParseSendWelcomePayload(data []byte) (*SendWelcomePayload, error) {
	var p SendWelcomePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshaling task payload: %w", err)
	}
	return &p, nil
}
