package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"mapproperties/pkg/requestcontext"
)

func TestNewEventUsesRequestMetadata(t *testing.T) {
	userID := uuid.New()
	now := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	ctx := requestcontext.WithUserID(context.Background(), userID)
	ctx = requestcontext.WithRequestID(ctx, "req-7")
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.9", "")
	ctx = requestcontext.WithTime(ctx, now)

	event := NewEvent(ctx, EventOTPSent, "********9012")

	assert.Equal(t, now, event.Timestamp)
	assert.Equal(t, userID, event.UserID)
	assert.Equal(t, "otp_sent", event.Action)
	assert.Equal(t, "********9012", event.Subject)
	assert.Equal(t, "req-7", event.RequestID)
	assert.Equal(t, "203.0.113.9", event.ClientIP)
	assert.Empty(t, event.ClientPlatform)
}

func TestClientPlatform(t *testing.T) {
	chrome := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	assert.True(t, strings.HasPrefix(ClientPlatform(chrome), "Chrome/"))

	googlebot := "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
	assert.Equal(t, "bot", ClientPlatform(googlebot))

	assert.Empty(t, ClientPlatform(""))
}
