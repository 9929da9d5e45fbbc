package email

import (
	"context"
	"log/slog"

	"agroalert/internal/domain/alert"

	"github.com/google/uuid"
)

// Mode says which sender capability was resolved at startup.
type Mode string

const (
	// ModeLive sends real email through the Resend API.
	ModeLive Mode = "live"

	// ModeSandbox logs instead of sending. Resolved when no API key is
	// configured, so "demo mode" is an explicit, observable state rather
	// than a stub hidden behind the same constructor.
	ModeSandbox Mode = "sandbox"
)

// Resolve picks the sender capability once at startup: a configured API key
// yields the live Resend sender, an empty one yields the sandbox sender.
func Resolve(apiKey string) (alert.EmailSender, Mode) {
	if apiKey == "" {
		return NewSandboxSender(), ModeSandbox
	}
	return NewResendSender(apiKey), ModeLive
}

var _ alert.EmailSender = (*SandboxSender)(nil)

// SandboxSender records outgoing mail in the log and fabricates a message ID.
// Every send succeeds.
type SandboxSender struct{}

// NewSandboxSender creates a sandbox sender.
func NewSandboxSender() *SandboxSender {
	return &SandboxSender{}
}

// Send logs the message and returns a synthetic provider ID.
func (s *SandboxSender) Send(ctx context.Context, msg *alert.Message) (string, error) {
	id := "sandbox-" + uuid.New().String()
	slog.Info("sandbox email (not sent)",
		"provider_id", id,
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject,
	)
	return id, nil
}
