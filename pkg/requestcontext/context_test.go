package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAccessorsDefaultToZeroValues(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, uuid.Nil, UserID(ctx))
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, ClientIP(ctx))
	assert.Empty(t, UserAgent(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
}

func TestAccessorsRoundTrip(t *testing.T) {
	userID := uuid.New()
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	ctx := WithUserID(context.Background(), userID)
	ctx = WithRequestID(ctx, "req-42")
	ctx = WithClientMetadata(ctx, "10.0.0.1", "curl/8.0")
	ctx = WithTime(ctx, fixed)

	assert.Equal(t, userID, UserID(ctx))
	assert.Equal(t, "req-42", RequestID(ctx))
	assert.Equal(t, "10.0.0.1", ClientIP(ctx))
	assert.Equal(t, "curl/8.0", UserAgent(ctx))
	assert.Equal(t, fixed, Now(ctx))
}
