package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Shared in-memory fakes for the store and provider contracts.

type fakeFarmerStore struct {
	subscribers map[Category][]Farmer
	farmer      *Farmer
	listErr     error
	touched     []string
}

func (f *fakeFarmerStore) ListSubscribers(ctx context.Context, category Category) ([]Farmer, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.subscribers[category], nil
}

func (f *fakeFarmerStore) GetFarmer(ctx context.Context, userID string) (*Farmer, error) {
	if f.farmer != nil && f.farmer.ID == userID {
		return f.farmer, nil
	}
	return nil, nil
}

func (f *fakeFarmerStore) TouchProfile(ctx context.Context, userID string) error {
	f.touched = append(f.touched, userID)
	return nil
}

type statusUpdate struct {
	id         string
	status     DeliveryStatus
	providerID string
	detail     string
}

type fakeDeliveryStore struct {
	mu        sync.Mutex
	seq       int
	records   map[string]*Delivery
	updates   []statusUpdate
	recorded  map[Category][]Outcome
	stale     []*Delivery
	createErr error
	recordErr error
}

func newFakeDeliveryStore() *fakeDeliveryStore {
	return &fakeDeliveryStore{
		records:  make(map[string]*Delivery),
		recorded: make(map[Category][]Outcome),
	}
}

func (f *fakeDeliveryStore) Create(ctx context.Context, d *Delivery) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	d.ID = fmt.Sprintf("delivery-%d", f.seq)
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	f.records[d.ID] = d
	return nil
}

func (f *fakeDeliveryStore) GetByID(ctx context.Context, id string) (*Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[id], nil
}

func (f *fakeDeliveryStore) UpdateStatus(ctx context.Context, id string, status DeliveryStatus, providerID string, detail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, statusUpdate{id: id, status: status, providerID: providerID, detail: detail})
	if d, ok := f.records[id]; ok {
		d.Status = status
		d.ProviderID = providerID
		d.Detail = detail
	}
	return nil
}

func (f *fakeDeliveryStore) RecordRun(ctx context.Context, category Category, outcomes []Outcome) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded[category] = append(f.recorded[category], outcomes...)
	return nil
}

func (f *fakeDeliveryStore) List(ctx context.Context, filter ListFilter) ([]*Delivery, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Delivery
	for _, d := range f.records {
		out = append(out, d)
	}
	return out, len(out), nil
}

func (f *fakeDeliveryStore) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*Delivery, error) {
	return f.stale, nil
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []*Message
	failFor map[string]string // recipient → error message
}

func (f *fakeSender) Send(ctx context.Context, msg *Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor != nil {
		if errMsg, ok := f.failFor[msg.To]; ok {
			return "", errors.New(errMsg)
		}
	}
	f.sent = append(f.sent, msg)
	return fmt.Sprintf("msg-%d", len(f.sent)), nil
}

type fakeRenderer struct {
	err error
}

func (f *fakeRenderer) Render(category Category, data map[string]any) (string, string, string, error) {
	if f.err != nil {
		return "", "", "", f.err
	}
	subject := "test subject"
	if s, ok := data["Subject"].(string); ok && s != "" {
		subject = s
	}
	return subject, "<p>body</p>", "body", nil
}

type fakeWeather struct {
	report *WeatherReport
	err    error
}

func (f *fakeWeather) Current(ctx context.Context, location string) (*WeatherReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

type fakePrices struct {
	quotes []Quote
	err    error
}

func (f *fakePrices) Quotes(ctx context.Context, crops []string) ([]Quote, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.quotes, nil
}

type fakeEnqueuer struct {
	ids []string
	err error
}

func (f *fakeEnqueuer) EnqueueSendWelcome(deliveryID string) error {
	if f.err != nil {
		return f.err
	}
	f.ids = append(f.ids, deliveryID)
	return nil
}

type fakeLimiter struct {
	allowed bool
	err     error
}

func (f *fakeLimiter) Allow(ctx context.Context, recipient string) (bool, error) {
	return f.allowed, f.err
}
