package alert

import "context"

// EmailSender defines the contract for an email delivery provider.
// Implementations live in infra/email/ (Resend, or the sandbox sender when no
// API key is configured).
type EmailSender interface {
	// Send delivers a rendered message and returns the provider's message ID.
	Send(ctx context.Context, msg *Message) (string, error)
}

// WeatherSource defines the contract for fetching current conditions.
// Implementations live in infra/weather/.
type WeatherSource interface {
	// Current returns normalized conditions for a free-form location string.
	Current(ctx context.Context, location string) (*WeatherReport, error)
}

// PriceSource defines the contract for looking up commodity prices.
// Implementations live in infra/market/.
type PriceSource interface {
	// Quotes returns price observations for the given crop names. Crops the
	// source does not track are omitted from the result.
	Quotes(ctx context.Context, crops []string) ([]Quote, error)
}

// TemplateRenderer defines the contract for rendering alert emails.
// Implementations live in infra/template/.
type TemplateRenderer interface {
	// Render produces a subject line, HTML body, and plain-text body for the
	// given alert category.
	Render(category Category, data map[string]any) (subject, html, text string, err error)
}

// RecipientRateLimiter defines the contract for per-recipient send caps.
// Implementations live in infra/ratelimit/.
type RecipientRateLimiter interface {
	// Allow checks whether an email can be sent to the given recipient.
	Allow(ctx context.Context, recipient string) (bool, error)
}
