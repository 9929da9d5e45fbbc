package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agroalert/internal/domain/alert"

	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

const (
	profilesTable   = "user_profiles"
	deliveriesTable = "alert_deliveries"
)

var (
	_ alert.FarmerStore   = (*SupabaseStore)(nil)
	_ alert.DeliveryStore = (*SupabaseStore)(nil)
)

// SupabaseStore implements the farmer and delivery stores using the Supabase
// Go SDK over PostgREST.
type SupabaseStore struct {
	client *supa.Client
}

// NewSupabaseStore creates a new Supabase-backed store.
func NewSupabaseStore(supabaseURL, serviceKey string) (*SupabaseStore, error) {
	client, err := supa.NewClient(supabaseURL, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

// subscriberColumns is the profile projection the dispatch runs need.
const subscriberColumns = "id,email,first_name,last_name,location,timezone,notification_time,weather_alerts,price_alerts,preferred_crops_for_alerts,crop_types"

// ListSubscribers returns all farmers who opted into the given alert category,
// ordered by creation time so every run sees the same recipient order.
func (s *SupabaseStore) ListSubscribers(ctx context.Context, category alert.Category) ([]alert.Farmer, error) {
	var flagColumn string
	switch category {
	case alert.CategoryWeather:
		flagColumn = "weather_alerts"
	case alert.CategoryPrice:
		flagColumn = "price_alerts"
	default:
		return nil, fmt.Errorf("no subscriber flag for category %q", category)
	}

	data, _, err := s.client.From(profilesTable).
		Select(subscriberColumns, "exact", false).
		Eq(flagColumn, "true").
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("listing %s subscribers: %w", category, err)
	}

	var farmers []alert.Farmer
	if err := json.Unmarshal(data, &farmers); err != nil {
		return nil, fmt.Errorf("parsing subscriber list: %w", err)
	}

	return farmers, nil
}

// GetFarmer retrieves one farmer profile by user ID.
// Returns nil, nil if no profile is found.
func (s *SupabaseStore) GetFarmer(ctx context.Context, userID string) (*alert.Farmer, error) {
	data, _, err := s.client.From(profilesTable).
		Select(subscriberColumns, "exact", false).
		Eq("id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("fetching farmer profile: %w", err)
	}

	var farmers []alert.Farmer
	if err := json.Unmarshal(data, &farmers); err != nil {
		return nil, fmt.Errorf("parsing farmer profile: %w", err)
	}

	if len(farmers) == 0 {
		return nil, nil
	}

	return &farmers[0], nil
}

// TouchProfile bumps the profile's updated_at timestamp.
func (s *SupabaseStore) TouchProfile(ctx context.Context, userID string) error {
	update := map[string]any{
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}

	_, _, err := s.client.From(profilesTable).Update(update, "", "").Eq("id", userID).Execute()
	if err != nil {
		return fmt.Errorf("touching farmer profile: %w", err)
	}

	return nil
}

// deliveryRow is the internal representation for PostgREST insert/update.
type deliveryRow struct {
	ID           string         `json:"id,omitempty"`
	UserID       *string        `json:"user_id,omitempty"`
	Category     string         `json:"category"`
	Recipient    string         `json:"recipient"`
	TemplateData map[string]any `json:"template_data,omitempty"`
	ProviderID   *string        `json:"provider_id,omitempty"`
	Status       string         `json:"status"`
	Detail       *string        `json:"detail,omitempty"`
	CreatedAt    string         `json:"created_at,omitempty"`
	UpdatedAt    string         `json:"updated_at,omitempty"`
	SentAt       *string        `json:"sent_at,omitempty"`
}

// Create inserts a new delivery record and fills in its ID and timestamps.
func (s *SupabaseStore) Create(ctx context.Context, d *alert.Delivery) error {
	row := deliveryRow{
		Category:  d.Category,
		Recipient: d.Recipient,
		Status:    string(d.Status),
	}

	if d.UserID != "" {
		row.UserID = &d.UserID
	}
	if d.TemplateData != nil {
		row.TemplateData = d.TemplateData
	}
	if d.Detail != "" {
		row.Detail = &d.Detail
	}

	// Insert and get the created row back
	var results []deliveryRow
	data, _, err := s.client.From(deliveriesTable).Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		return fmt.Errorf("inserting delivery record: %w", err)
	}

	if err := json.Unmarshal(data, &results); err != nil {
		return fmt.Errorf("parsing insert response: %w", err)
	}

	if len(results) > 0 {
		d.ID = results[0].ID
		if t, err := time.Parse(time.RFC3339Nano, results[0].CreatedAt); err == nil {
			d.CreatedAt = t
		}
		if t, err := time.Parse(time.RFC3339Nano, results[0].UpdatedAt); err == nil {
			d.UpdatedAt = t
		}
	}

	return nil
}

// GetByID retrieves a delivery record by its ID.
func (s *SupabaseStore) GetByID(ctx context.Context, id string) (*alert.Delivery, error) {
	data, _, err := s.client.From(deliveriesTable).Select("*", "exact", false).Eq("id", id).Execute()
	if err != nil {
		return nil, fmt.Errorf("fetching delivery record: %w", err)
	}

	var rows []deliveryRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing delivery record: %w", err)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	return rowToDelivery(&rows[0]), nil
}

// UpdateStatus updates the status of a delivery record.
func (s *SupabaseStore) UpdateStatus(ctx context.Context, id string, status alert.DeliveryStatus, providerID string, detail string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	update := map[string]any{
		"status":     string(status),
		"updated_at": now,
	}

	if providerID != "" {
		update["provider_id"] = providerID
	}

	if detail != "" {
		update["detail"] = detail
	}

	if status == alert.StatusSent {
		update["sent_at"] = now
	}

	_, _, err := s.client.From(deliveriesTable).Update(update, "", "").Eq("id", id).Execute()
	if err != nil {
		return fmt.Errorf("updating delivery status: %w", err)
	}

	return nil
}

// RecordRun inserts terminal delivery records for one dispatch run's outcomes.
// A successful outcome with a detail message means nothing was actually sent
// (e.g. no price changes), which is recorded as skipped.
func (s *SupabaseStore) RecordRun(ctx context.Context, category alert.Category, outcomes []alert.Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	rows := make([]deliveryRow, 0, len(outcomes))
	for _, o := range outcomes {
		status := alert.StatusSent
		switch {
		case !o.Success:
			status = alert.StatusFailed
		case o.Detail != "":
			status = alert.StatusSkipped
		}

		row := deliveryRow{
			Category:  string(category),
			Recipient: o.Email,
			Status:    string(status),
		}
		if o.RecipientID != "" {
			userID := o.RecipientID
			row.UserID = &userID
		}
		if o.Detail != "" {
			detail := o.Detail
			row.Detail = &detail
		}
		if status == alert.StatusSent {
			sentAt := now
			row.SentAt = &sentAt
		}
		rows = append(rows, row)
	}

	_, _, err := s.client.From(deliveriesTable).Insert(rows, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("recording run outcomes: %w", err)
	}

	return nil
}

// List retrieves delivery records with pagination and filtering.
func (s *SupabaseStore) List(ctx context.Context, filter alert.ListFilter) ([]*alert.Delivery, int, error) {
	// Apply defaults
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	offset := (filter.Page - 1) * filter.PageSize

	query := s.client.From(deliveriesTable).Select("*", "exact", false)

	// Apply filters
	if filter.Status != "" {
		query = query.Eq("status", filter.Status)
	}
	if filter.Recipient != "" {
		query = query.Eq("recipient", filter.Recipient)
	}
	if filter.Category != "" {
		query = query.Eq("category", filter.Category)
	}

	// Order by created_at desc, paginate
	query = query.Order("created_at", &postgrest.OrderOpts{Ascending: false})
	query = query.Range(offset, offset+filter.PageSize-1, "")

	data, count, err := query.Execute()
	if err != nil {
		return nil, 0, fmt.Errorf("listing delivery records: %w", err)
	}

	var rows []deliveryRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, 0, fmt.Errorf("parsing delivery list: %w", err)
	}

	deliveries := make([]*alert.Delivery, len(rows))
	for i, row := range rows {
		deliveries[i] = rowToDelivery(&row)
	}

	return deliveries, int(count), nil
}

// ListStale retrieves deliveries stuck in queued/processing for longer than olderThan.
func (s *SupabaseStore) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*alert.Delivery, error) {
	if limit <= 0 {
		limit = 50
	}

	threshold := olderThan.UTC().Format(time.RFC3339Nano)

	query := s.client.From(deliveriesTable).
		Select("*", "exact", false).
		In("status", []string{string(alert.StatusQueued), string(alert.StatusProcessing)}).
		Lt("updated_at", threshold).
		Order("updated_at", &postgrest.OrderOpts{Ascending: true}).
		Range(0, limit-1, "")

	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("listing stale deliveries: %w", err)
	}

	var rows []deliveryRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing stale deliveries: %w", err)
	}

	deliveries := make([]*alert.Delivery, len(rows))
	for i, row := range rows {
		deliveries[i] = rowToDelivery(&row)
	}

	return deliveries, nil
}

// rowToDelivery converts a deliveryRow to an alert.Delivery.
func rowToDelivery(row *deliveryRow) *alert.Delivery {
	d := &alert.Delivery{
		ID:        row.ID,
		Category:  row.Category,
		Recipient: row.Recipient,
		Status:    alert.DeliveryStatus(row.Status),
	}

	if row.UserID != nil {
		d.UserID = *row.UserID
	}
	if row.TemplateData != nil {
		d.TemplateData = row.TemplateData
	}
	if row.ProviderID != nil {
		d.ProviderID = *row.ProviderID
	}
	if row.Detail != nil {
		d.Detail = *row.Detail
	}

	if row.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, row.CreatedAt); err == nil {
			d.CreatedAt = t
		}
	}
	if row.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, row.UpdatedAt); err == nil {
			d.UpdatedAt = t
		}
	}
	if row.SentAt != nil {
		if t, err := time.Parse(time.RFC3339Nano, *row.SentAt); err == nil {
			d.SentAt = &t
		}
	}

	return d
}
