package publisher

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	audit "mapproperties/pkg/platform/audit"
	"mapproperties/pkg/platform/audit/store/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedStore holds every Append until release is closed.
type gatedStore struct {
	*memory.InMemoryStore
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		InMemoryStore: memory.NewInMemoryStore(),
		started:       make(chan struct{}),
		release:       make(chan struct{}),
	}
}

func (s *gatedStore) Append(ctx context.Context, event audit.Event) error {
	s.once.Do(func() { close(s.started) })
	<-s.release
	return s.InMemoryStore.Append(ctx, event)
}

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("broker unavailable") }

type appendOnlyStore struct{}

func (appendOnlyStore) Append(context.Context, audit.Event) error { return nil }

func decided(userID uuid.UUID) audit.Event {
	return audit.Event{UserID: userID, Action: string(audit.EventVerificationDecided)}
}

func TestPublisher_SyncMode(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore())
	defer pub.Close()

	userID := uuid.New()
	require.NoError(t, pub.Emit(context.Background(), decided(userID)))

	events, err := pub.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventVerificationDecided), events[0].Action)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := newGatedStore()
	pub := NewPublisher(store, WithAsyncBuffer(16))

	userID := uuid.New()
	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), decided(userID)))
	}

	// Nothing is persisted while the store is held.
	<-store.started
	events, err := store.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, events)

	close(store.release)
	pub.Close()

	events, err = store.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, events, 10)
}

func TestPublisher_BufferFull(t *testing.T) {
	store := newGatedStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))

	userID := uuid.New()
	require.NoError(t, pub.Emit(context.Background(), decided(userID)))
	// The first event is now held inside the store, so the buffer is empty.
	<-store.started
	require.NoError(t, pub.Emit(context.Background(), decided(userID)))

	err := pub.Emit(context.Background(), decided(userID))
	assert.ErrorIs(t, err, ErrBufferFull)

	close(store.release)
	pub.Close()

	events, err := store.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, events, 2, "the dropped event is not persisted")
}

func TestPublisher_EmitAfterClose(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "sync"},
		{name: "async", opts: []Option{WithAsyncBuffer(4)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewInMemoryStore()
			pub := NewPublisher(store, tt.opts...)
			pub.Close()

			userID := uuid.New()
			assert.NotPanics(t, func() {
				assert.ErrorIs(t, pub.Emit(context.Background(), decided(userID)), ErrClosed)
			})
			assert.NotPanics(t, pub.Close)

			events, err := store.ListByUser(context.Background(), userID)
			require.NoError(t, err)
			assert.Empty(t, events)
		})
	}
}

func TestPublisher_ConcurrentEmitAndClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(8))
	userID := uuid.New()

	var accepted atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for range 20 {
				err := pub.Emit(context.Background(), decided(userID))
				switch {
				case err == nil:
					accepted.Add(1)
				case errors.Is(err, ErrBufferFull), errors.Is(err, ErrClosed):
				default:
					t.Errorf("unexpected emit error: %v", err)
				}
			}
		}()
	}

	close(start)
	pub.Close()
	wg.Wait()

	events, err := store.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, events, int(accepted.Load()), "every accepted event is drained")
}

func TestPublisher_AsyncCancelledContext(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(4))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	userID := uuid.New()
	assert.ErrorIs(t, pub.Emit(ctx, decided(userID)), context.Canceled)
	pub.Close()

	events, err := store.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestPublisher_DrainLogsFailedWrites(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	pub := NewPublisher(failingStore{}, WithAsyncBuffer(2), WithLogger(logger))

	require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: string(audit.EventOTPSent)}))
	pub.Close()

	out := buf.String()
	assert.Contains(t, out, "failed to persist audit event")
	assert.Contains(t, out, "broker unavailable")
	assert.Contains(t, out, string(audit.EventOTPSent))
}

func TestPublisher_Timestamps(t *testing.T) {
	customTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		stamp time.Time
	}{
		{name: "unset is stamped now"},
		{name: "existing is preserved", stamp: customTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := NewPublisher(memory.NewInMemoryStore())
			defer pub.Close()

			userID := uuid.New()
			event := decided(userID)
			event.Timestamp = tt.stamp

			before := time.Now()
			require.NoError(t, pub.Emit(context.Background(), event))
			after := time.Now()

			events, err := pub.List(context.Background(), userID)
			require.NoError(t, err)
			require.Len(t, events, 1)
			if tt.stamp.IsZero() {
				assert.False(t, events[0].Timestamp.Before(before))
				assert.False(t, events[0].Timestamp.After(after))
				return
			}
			assert.Equal(t, tt.stamp, events[0].Timestamp)
		})
	}
}

func TestPublisher_ListsPerUserInOrder(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore())
	defer pub.Close()

	first, second := uuid.New(), uuid.New()
	for _, e := range []audit.Event{
		{UserID: first, Action: string(audit.EventVerificationDecided)},
		{UserID: second, Action: string(audit.EventOTPSent)},
		{UserID: first, Action: string(audit.EventPropertyCreated)},
	} {
		require.NoError(t, pub.Emit(context.Background(), e))
	}

	events, err := pub.List(context.Background(), first)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, string(audit.EventVerificationDecided), events[0].Action)
	assert.Equal(t, string(audit.EventPropertyCreated), events[1].Action)

	events, err = pub.List(context.Background(), second)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestPublisher_ListUnsupported(t *testing.T) {
	pub := NewPublisher(appendOnlyStore{})
	defer pub.Close()

	_, err := pub.List(context.Background(), uuid.New())
	assert.Error(t, err)
}
