package distributed

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"interviewsignal/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestPresenceBus_HandleSkipsOwnInstance(t *testing.T) {
	bus := NewPresenceBus(nil, "instance-a", zaptest.NewLogger(t).Sugar())

	var delivered []domain.PresenceUpdate
	deliver := func(u domain.PresenceUpdate) { delivered = append(delivered, u) }

	encode := func(instance string, update domain.PresenceUpdate) string {
		data, err := json.Marshal(presenceEvent{InstanceID: instance, Timestamp: time.Now(), Update: update})
		require.NoError(t, err)
		return string(data)
	}

	bus.handle(encode("instance-a", domain.PresenceUpdate{UserID: "u1", IsOnline: true}), deliver)
	bus.handle(encode("instance-b", domain.PresenceUpdate{UserID: "u2", IsOnline: false}), deliver)
	bus.handle(encode("instance-b", domain.PresenceUpdate{}), deliver)
	bus.handle("{not json", deliver)

	require.Len(t, delivered, 1)
	assert.Equal(t, domain.UserID("u2"), delivered[0].UserID)
	assert.False(t, delivered[0].IsOnline)
}

// redisFixture connects to INTERVIEWSIGNAL_TEST_REDIS when set.
func redisFixture(t *testing.T) *RedisPresenceStore {
	t.Helper()
	addr := os.Getenv("INTERVIEWSIGNAL_TEST_REDIS")
	if addr == "" {
		t.Skip("INTERVIEWSIGNAL_TEST_REDIS not set")
	}
	client, err := NewRedisClient(context.Background(), RedisConfig{Address: addr, PoolSize: 2}, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	store := NewRedisPresenceStore(client, time.Minute)
	store.prefix = "interviewsignal:test:" + uuid.NewString() + ":"
	return store
}

func TestRedisPresenceStore_GuardedRemove(t *testing.T) {
	store := redisFixture(t)
	ctx := context.Background()

	entry := domain.PresenceEntry{UserID: "u1", ConnectionID: "c2", ConnectedAt: time.Now().UTC()}
	require.NoError(t, store.Store(ctx, entry))

	removed, err := store.Remove(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.False(t, removed, "stale connection must not remove a newer entry")

	require.NoError(t, store.Refresh(ctx, "u1", "c2"))

	found, err := store.Lookup(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, domain.ConnectionID("c2"), found.ConnectionID)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ConnectionID("c2"), entries[0].ConnectionID)

	removed, err = store.Remove(ctx, "u1", "c2")
	require.NoError(t, err)
	assert.True(t, removed)

	entries, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	found, err = store.Lookup(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestPresenceBus_RoundTrip(t *testing.T) {
	store := redisFixture(t)
	logger := zaptest.NewLogger(t).Sugar()
	sender := NewPresenceBus(store.client, "sender", logger)
	receiver := NewPresenceBus(store.client, "receiver", logger)
	sender.channel = store.prefix + "bus"
	receiver.channel = sender.channel

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan domain.PresenceUpdate, 1)
	go func() { _ = receiver.Subscribe(ctx, func(u domain.PresenceUpdate) { got <- u }) }()

	require.Eventually(t, func() bool {
		_ = sender.PublishPresence(ctx, domain.PresenceUpdate{UserID: "u1", IsOnline: true})
		select {
		case u := <-got:
			return u.UserID == "u1"
		default:
			return false
		}
	}, 3*time.Second, 50*time.Millisecond)
}
