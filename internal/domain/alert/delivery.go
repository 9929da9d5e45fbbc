package alert

import "time"

// DeliveryStatus represents the delivery status of one email.
type DeliveryStatus string

const (
	StatusQueued     DeliveryStatus = "queued"
	StatusProcessing DeliveryStatus = "processing"
	StatusSent       DeliveryStatus = "sent"
	StatusFailed     DeliveryStatus = "failed"
	StatusSkipped    DeliveryStatus = "skipped" // no-op success, nothing was sent
)

// Delivery is a persisted record of one email delivery attempt. Welcome
// emails move queued → processing → sent/failed through the worker; dispatch
// run outcomes are recorded terminally as sent/failed/skipped.
type Delivery struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Category     string         `json:"category"`
	Recipient    string         `json:"recipient"`
	TemplateData map[string]any `json:"template_data,omitempty"`
	ProviderID   string         `json:"provider_id,omitempty"`
	Status       DeliveryStatus `json:"status"`
	Detail       string         `json:"detail,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	SentAt       *time.Time     `json:"sent_at,omitempty"`
}

// ListFilter defines pagination and filtering options for listing deliveries.
type ListFilter struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	Status    string `form:"status"`
	Recipient string `form:"recipient"`
	Category  string `form:"category"`
}

// ListResponse wraps a paginated list of delivery records.
type ListResponse struct {
	Deliveries []*Delivery `json:"deliveries"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
}
