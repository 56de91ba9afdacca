package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"mapproperties/pkg/requestcontext"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out. Subject must never hold
// a raw identity number; use the masked form.
type Event struct {
	Timestamp      time.Time `json:"timestamp"`
	UserID         uuid.UUID `json:"user_id,omitempty"`
	Subject        string    `json:"subject"`
	Action         string    `json:"action"`
	Decision       string    `json:"decision,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	RequestID      string    `json:"request_id,omitempty"`
	ClientIP       string    `json:"client_ip,omitempty"`
	ClientPlatform string    `json:"client_platform,omitempty"`
}

type AuditEvent string

const (
	EventVerificationDecided AuditEvent = "verification_decided"
	EventOTPSent             AuditEvent = "otp_sent"
	EventOTPVerified         AuditEvent = "otp_verified"
	EventOTPFailed           AuditEvent = "otp_failed"
	EventPropertyCreated     AuditEvent = "property_created"
	EventUserSignedIn        AuditEvent = "user_signed_in"
)

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// NewEvent builds an event for action, enriched with the request metadata
// found in ctx (user, request ID, client IP and platform).
func NewEvent(ctx context.Context, action AuditEvent, subject string) Event {
	return Event{
		Timestamp:      requestcontext.Now(ctx),
		UserID:         requestcontext.UserID(ctx),
		Subject:        subject,
		Action:         string(action),
		RequestID:      requestcontext.RequestID(ctx),
		ClientIP:       requestcontext.ClientIP(ctx),
		ClientPlatform: ClientPlatform(requestcontext.UserAgent(ctx)),
	}
}

// ClientPlatform summarizes a User-Agent as "<browser>/<os>", or "bot" for crawlers.
func ClientPlatform(ua string) string {
	if ua == "" {
		return ""
	}
	parsed := useragent.New(ua)
	if parsed.Bot() {
		return "bot"
	}
	browser, _ := parsed.Browser()
	if browser == "" {
		browser = "unknown"
	}
	os := parsed.OS()
	if os == "" {
		os = "unknown"
	}
	return browser + "/" + os
}
