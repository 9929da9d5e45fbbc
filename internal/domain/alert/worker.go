package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"agroalert/internal/common"
)

// Worker processes welcome email tasks from the queue. It picks up a task,
// fetches the delivery record, renders the welcome template, sends via the
// email provider, and updates the record status.
type Worker struct {
	farmers    FarmerStore
	deliveries DeliveryStore
	renderer   TemplateRenderer
	sender     EmailSender
	from       string
	appURL     string
}

// NewWorker creates a new welcome email worker.
func NewWorker(farmers FarmerStore, deliveries DeliveryStore, renderer TemplateRenderer, sender EmailSender, from, appURL string) *Worker {
	return &Worker{
		farmers:    farmers,
		deliveries: deliveries,
		renderer:   renderer,
		sender:     sender,
		from:       from,
		appURL:     appURL,
	}
}

// ProcessSendWelcome handles one welcome email task from the queue.
// Returning an error lets asynq retry with backoff.
func (w *Worker) ProcessSendWelcome(ctx context.Context, deliveryID string) error {
	start := time.Now()

	delivery, err := w.deliveries.GetByID(ctx, deliveryID)
	if err != nil {
		return fmt.Errorf("fetching delivery %s: %w", deliveryID, err)
	}
	if delivery == nil {
		slog.Error("delivery record not found", "delivery_id", deliveryID)
		return fmt.Errorf("delivery record not found: %s", deliveryID)
	}

	if delivery.Status == StatusSent {
		// Already delivered; a reaper re-enqueue raced a slow send.
		return nil
	}

	if err := w.deliveries.UpdateStatus(ctx, deliveryID, StatusProcessing, "", ""); err != nil {
		slog.Error("failed to update status to processing", "delivery_id", deliveryID, "error", err)
	}

	data := delivery.TemplateData
	if data == nil {
		data = map[string]any{}
	}
	data["AppURL"] = w.appURL

	subject, html, text, err := w.renderer.Render(CategoryWelcome, data)
	if err != nil {
		errMsg := fmt.Sprintf("rendering template: %s", err.Error())
		_ = w.deliveries.UpdateStatus(ctx, deliveryID, StatusFailed, "", errMsg)
		return fmt.Errorf("rendering welcome template: %w", err)
	}

	msg := &Message{
		From:    w.from,
		To:      delivery.Recipient,
		Subject: subject,
		HTML:    html,
		Text:    text,
	}

	providerID, err := w.sender.Send(ctx, msg)
	if err != nil {
		errMsg := fmt.Sprintf("provider error: %s", err.Error())
		_ = w.deliveries.UpdateStatus(ctx, deliveryID, StatusFailed, "", errMsg)

		slog.Error("welcome email delivery failed",
			"delivery_id", deliveryID,
			"to", delivery.Recipient,
			"error", err,
			"duration", time.Since(start),
		)
		return common.NewProviderError("email", err.Error())
	}

	if err := w.deliveries.UpdateStatus(ctx, deliveryID, StatusSent, providerID, ""); err != nil {
		slog.Error("failed to update status to sent", "delivery_id", deliveryID, "error", err)
	}

	// Bump the profile so the dashboard reflects the onboarding email.
	// Best effort: the email already went out.
	if delivery.UserID != "" {
		if err := w.farmers.TouchProfile(ctx, delivery.UserID); err != nil {
			slog.Error("failed to touch profile after welcome email", "user_id", delivery.UserID, "error", err)
		}
	}

	slog.Info("welcome email sent",
		"delivery_id", deliveryID,
		"to", delivery.Recipient,
		"provider_id", providerID,
		"duration", time.Since(start),
	)

	return nil
}
