package alert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"agroalert/internal/common"
)

// Enqueuer defines the contract for enqueuing welcome email tasks.
// This allows the service to be decoupled from the specific queue implementation.
type Enqueuer interface {
	EnqueueSendWelcome(deliveryID string) error
}

// ServiceConfig holds the sender identities and app link the service stamps
// onto outgoing emails.
type ServiceConfig struct {
	WeatherFrom     string
	PriceFrom       string
	WelcomeFrom     string
	AppURL          string
	DefaultLocation string
}

// Service orchestrates the alert business logic: the two scheduled dispatch
// runs (weather, price) and the request-triggered welcome email flow.
type Service struct {
	farmers    FarmerStore
	deliveries DeliveryStore
	dispatcher *Dispatcher
	weather    WeatherSource
	prices     PriceSource
	sender     EmailSender
	renderer   TemplateRenderer
	enqueuer   Enqueuer
	limiter    RecipientRateLimiter
	cfg        ServiceConfig
}

// NewService creates a new alert service.
func NewService(
	farmers FarmerStore,
	deliveries DeliveryStore,
	dispatcher *Dispatcher,
	weather WeatherSource,
	prices PriceSource,
	sender EmailSender,
	renderer TemplateRenderer,
	enqueuer Enqueuer,
	limiter RecipientRateLimiter,
	cfg ServiceConfig,
) *Service {
	if cfg.DefaultLocation == "" {
		cfg.DefaultLocation = "Ludhiana, India"
	}
	return &Service{
		farmers:    farmers,
		deliveries: deliveries,
		dispatcher: dispatcher,
		weather:    weather,
		prices:     prices,
		sender:     sender,
		renderer:   renderer,
		enqueuer:   enqueuer,
		limiter:    limiter,
		cfg:        cfg,
	}
}

// DispatchWeather sends the daily weather alert to every subscribed farmer.
// Only the subscriber-list fetch can fail the run as a whole; per-recipient
// failures are recorded in the report and never abort the batch.
func (s *Service) DispatchWeather(ctx context.Context) (*RunResponse, error) {
	farmers, err := s.farmers.ListSubscribers(ctx, CategoryWeather)
	if err != nil {
		return nil, fmt.Errorf("fetching weather subscribers: %w", err)
	}

	if len(farmers) == 0 {
		slog.Info("no farmers with weather alerts enabled")
		return &RunResponse{Message: "No subscribers to alert", Results: []Outcome{}}, nil
	}

	slog.Info("starting weather alert run", "subscribers", len(farmers))
	report := s.dispatcher.Run(ctx, farmers, s.sendWeatherAlert)
	s.recordRun(ctx, CategoryWeather, report)

	return &RunResponse{
		Message: "Weather alerts processing completed",
		Total:   report.Total,
		Sent:    report.Succeeded,
		Failed:  report.Failed,
		Results: report.Outcomes,
	}, nil
}

// DispatchPrice sends market price alerts to every subscribed farmer whose
// tracked crops moved significantly since the last observation.
func (s *Service) DispatchPrice(ctx context.Context) (*RunResponse, error) {
	farmers, err := s.farmers.ListSubscribers(ctx, CategoryPrice)
	if err != nil {
		return nil, fmt.Errorf("fetching price subscribers: %w", err)
	}

	if len(farmers) == 0 {
		slog.Info("no farmers with price alerts enabled")
		return &RunResponse{Message: "No subscribers to alert", Results: []Outcome{}}, nil
	}

	slog.Info("starting price alert run", "subscribers", len(farmers))
	report := s.dispatcher.Run(ctx, farmers, s.sendPriceAlert)
	s.recordRun(ctx, CategoryPrice, report)

	return &RunResponse{
		Message: "Price alerts processing completed",
		Total:   report.Total,
		Sent:    report.Succeeded,
		Failed:  report.Failed,
		Results: report.Outcomes,
	}, nil
}

// sendWeatherAlert is the per-recipient weather operation. It never returns a
// fault to the dispatcher: a failed conditions fetch falls back to a canned
// report, and a failed send becomes a failed Outcome.
func (s *Service) sendWeatherAlert(ctx context.Context, f Farmer) Outcome {
	location := f.Location
	if location == "" {
		location = s.cfg.DefaultLocation
	}

	report, err := s.weather.Current(ctx, location)
	if err != nil {
		slog.Warn("weather fetch failed, using fallback", "user_id", f.ID, "location", location, "error", err)
		report = fallbackWeather(location)
	}

	subject := fmt.Sprintf("🌤️ Daily Weather Alert - %s", report.Location)
	data := map[string]any{
		"Subject":     subject,
		"FirstName":   f.FirstName,
		"Temperature": report.Temperature,
		"Humidity":    report.Humidity,
		"Wind":        report.WindKPH,
		"Condition":   report.Condition,
		"Location":    report.Location,
		"Tips":        farmingTips(report),
		"AppURL":      s.cfg.AppURL,
	}

	return s.deliver(ctx, f, CategoryWeather, s.cfg.WeatherFrom, data)
}

// sendPriceAlert is the per-recipient price operation. A farmer with no
// significant price moves gets a no-op success outcome and no email.
func (s *Service) sendPriceAlert(ctx context.Context, f Farmer) Outcome {
	crops := CropsFor(f)

	quotes, err := s.prices.Quotes(ctx, crops)
	if err != nil {
		// Mirror the weather fallback philosophy: a price-table failure is
		// not the recipient's fault, so it degrades to "nothing to report".
		slog.Warn("price lookup failed", "user_id", f.ID, "crops", crops, "error", err)
		quotes = nil
	}

	alerts := BuildPriceAlerts(quotes, f.Location)
	if len(alerts) == 0 {
		return Outcome{RecipientID: f.ID, Email: f.Email, Success: true, Detail: "No price changes to report"}
	}

	subject := fmt.Sprintf("📈 Market Price Updates - %s", time.Now().Format("2 Jan 2006"))
	data := map[string]any{
		"Subject":   subject,
		"FirstName": f.FirstName,
		"Alerts":    alerts,
		"AppURL":    s.cfg.AppURL,
	}

	return s.deliver(ctx, f, CategoryPrice, s.cfg.PriceFrom, data)
}

// deliver renders and sends one alert email, converting any failure into a
// failed Outcome.
func (s *Service) deliver(ctx context.Context, f Farmer, category Category, from string, data map[string]any) Outcome {
	subject, html, text, err := s.renderer.Render(category, data)
	if err != nil {
		return Outcome{RecipientID: f.ID, Email: f.Email, Success: false, Detail: "rendering template: " + err.Error()}
	}

	msg := &Message{
		From:    from,
		To:      f.Email,
		Subject: subject,
		HTML:    html,
		Text:    text,
	}

	if _, err := s.sender.Send(ctx, msg); err != nil {
		return Outcome{RecipientID: f.ID, Email: f.Email, Success: false, Detail: err.Error()}
	}

	return Outcome{RecipientID: f.ID, Email: f.Email, Success: true}
}

// recordRun persists one dispatch run's outcomes. Best effort: a store failure
// loses operator history but never fails the run that already happened.
func (s *Service) recordRun(ctx context.Context, category Category, report Report) {
	if err := s.deliveries.RecordRun(ctx, category, report.Outcomes); err != nil {
		slog.Error("recording dispatch outcomes failed", "category", category, "error", err)
	}

	slog.Info("alert run complete",
		"category", category,
		"total", report.Total,
		"sent", report.Succeeded,
		"failed", report.Failed,
	)

	for _, o := range report.Outcomes {
		if !o.Success {
			slog.Error("alert delivery failed", "category", category, "user_id", o.RecipientID, "detail", o.Detail)
		}
	}
}

// EnqueueWelcome creates a queued delivery record for a welcome email and
// hands it to the task queue for async sending.
func (s *Service) EnqueueWelcome(ctx context.Context, req *WelcomeRequest) (*WelcomeResponse, error) {
	// Check per-recipient rate limit
	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, req.Email)
		if err != nil {
			slog.Error("rate limit check failed, proceeding without limit", "recipient", req.Email, "error", err)
			// Fail open so a Redis outage never blocks signups.
		} else if !allowed {
			return nil, common.NewValidationError(fmt.Sprintf("rate limit exceeded for recipient: %s", req.Email))
		}
	}

	delivery := &Delivery{
		UserID:    req.UserID,
		Category:  string(CategoryWelcome),
		Recipient: req.Email,
		TemplateData: map[string]any{
			"FirstName": req.FirstName,
			"LastName":  req.LastName,
			"Location":  req.Location,
		},
		Status: StatusQueued,
	}

	if err := s.deliveries.Create(ctx, delivery); err != nil {
		return nil, fmt.Errorf("creating delivery record: %w", err)
	}

	if err := s.enqueuer.EnqueueSendWelcome(delivery.ID); err != nil {
		_ = s.deliveries.UpdateStatus(ctx, delivery.ID, StatusFailed, "", "failed to enqueue: "+err.Error())
		return nil, fmt.Errorf("enqueuing welcome email: %w", err)
	}

	slog.Info("welcome email enqueued", "id", delivery.ID, "user_id", req.UserID, "to", req.Email)

	return &WelcomeResponse{
		ID:     delivery.ID,
		Email:  req.Email,
		Status: string(StatusQueued),
	}, nil
}

// ResendWelcome looks up the farmer's profile and enqueues the welcome email
// again.
func (s *Service) ResendWelcome(ctx context.Context, userID string) (*WelcomeResponse, error) {
	f, err := s.farmers.GetFarmer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching farmer profile: %w", err)
	}
	if f == nil {
		return nil, common.NewNotFoundError("farmer", userID)
	}

	return s.EnqueueWelcome(ctx, &WelcomeRequest{
		UserID:    f.ID,
		Email:     f.Email,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Location:  f.Location,
	})
}

// GetDelivery retrieves a delivery record by ID.
func (s *Service) GetDelivery(ctx context.Context, id string) (*Delivery, error) {
	d, err := s.deliveries.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching delivery: %w", err)
	}
	if d == nil {
		return nil, common.NewNotFoundError("delivery", id)
	}
	return d, nil
}

// ListDeliveries retrieves delivery records with pagination and filtering.
func (s *Service) ListDeliveries(ctx context.Context, filter ListFilter) (*ListResponse, error) {
	deliveries, total, err := s.deliveries.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing deliveries: %w", err)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	return &ListResponse{
		Deliveries: deliveries,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}, nil
}

// fallbackWeather is the canned report used when the conditions fetch fails.
// The run must proceed: a missing forecast is not worth dropping the alert.
func fallbackWeather(location string) *WeatherReport {
	return &WeatherReport{
		Temperature: 25,
		Humidity:    60,
		WindKPH:     10,
		Condition:   "partly cloudy",
		Location:    location,
	}
}

// farmingTips derives simple condition-based advice for the weather email.
func farmingTips(w *WeatherReport) []string {
	var tips []string
	if w.Temperature >= 35 {
		tips = append(tips, "High heat expected — irrigate early in the morning and provide shade for young plants.")
	}
	if w.Temperature <= 5 {
		tips = append(tips, "Cold conditions — protect seedlings and delay transplanting if possible.")
	}
	if w.Humidity >= 80 {
		tips = append(tips, "High humidity raises fungal disease risk — inspect leaves and ensure good airflow.")
	}
	if w.WindKPH >= 20 {
		tips = append(tips, "Strong winds expected — avoid spraying pesticides today.")
	}
	if containsAny(w.Condition, "rain", "drizzle", "thunderstorm") {
		tips = append(tips, "Rain expected — check field drainage and postpone fertilizer application.")
	}
	if len(tips) == 0 {
		tips = append(tips, "Favourable conditions for field work — a good day for sowing or harvesting.")
	}
	return tips
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
