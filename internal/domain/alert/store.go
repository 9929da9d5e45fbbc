package alert

import (
	"context"
	"time"
)

// FarmerStore defines the contract for reading user profiles.
// Implementations live in infra/store/ (e.g., Supabase).
type FarmerStore interface {
	// ListSubscribers returns all farmers who opted into the given alert
	// category, in a stable order. An empty list is valid.
	ListSubscribers(ctx context.Context, category Category) ([]Farmer, error)

	// GetFarmer retrieves one farmer profile by user ID.
	// Returns nil, nil if no profile is found.
	GetFarmer(ctx context.Context, userID string) (*Farmer, error)

	// TouchProfile bumps the profile's updated_at timestamp. Used after a
	// welcome email goes out.
	TouchProfile(ctx context.Context, userID string) error
}

// DeliveryStore defines the contract for persisting delivery records.
type DeliveryStore interface {
	// Create inserts a new delivery record and fills in its ID.
	Create(ctx context.Context, d *Delivery) error

	// GetByID retrieves a delivery record by its ID.
	GetByID(ctx context.Context, id string) (*Delivery, error)

	// UpdateStatus updates the status of a delivery record.
	UpdateStatus(ctx context.Context, id string, status DeliveryStatus, providerID string, detail string) error

	// RecordRun inserts terminal delivery records for one dispatch run's outcomes.
	RecordRun(ctx context.Context, category Category, outcomes []Outcome) error

	// List retrieves delivery records with pagination and filtering.
	List(ctx context.Context, filter ListFilter) ([]*Delivery, int, error)

	// ListStale retrieves deliveries stuck in queued/processing for longer
	// than the given threshold. Used by the reaper for reconciliation.
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*Delivery, error)
}
