package distributed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"interviewsignal/internal/core/domain"
	"interviewsignal/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const defaultPresencePrefix = "interviewsignal:presence:"

// Both scripts act only while the stored entry still names the caller's
// connection, so a late disconnect cannot erase a newer session.
var (
	removeIfOwner = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then return 0 end
local entry = cjson.decode(raw)
if entry["connectionId"] ~= ARGV[1] then return 0 end
redis.call("DEL", KEYS[1])
return 1
`)

	refreshIfOwner = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then return 0 end
local entry = cjson.decode(raw)
if entry["connectionId"] ~= ARGV[1] then return 0 end
redis.call("PEXPIRE", KEYS[1], ARGV[2])
return 1
`)
)

// RedisPresenceStore mirrors presence entries as JSON strings with a TTL.
// Entries of a crashed instance expire on their own.
type RedisPresenceStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ ports.PresenceStore = (*RedisPresenceStore)(nil)

func NewRedisPresenceStore(client *redis.Client, ttl time.Duration) *RedisPresenceStore {
	return &RedisPresenceStore{
		client: client,
		prefix: defaultPresencePrefix,
		ttl:    ttl,
	}
}

func (s *RedisPresenceStore) key(userID domain.UserID) string {
	return s.prefix + userID.String()
}

func (s *RedisPresenceStore) Store(ctx context.Context, entry domain.PresenceEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal presence entry: %w", err)
	}
	if err := s.client.Set(ctx, s.key(entry.UserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store presence: %w", err)
	}
	return nil
}

func (s *RedisPresenceStore) Remove(ctx context.Context, userID domain.UserID, connID domain.ConnectionID) (bool, error) {
	n, err := removeIfOwner.Run(ctx, s.client, []string{s.key(userID)}, connID.String()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to remove presence: %w", err)
	}
	return n == 1, nil
}

func (s *RedisPresenceStore) Refresh(ctx context.Context, userID domain.UserID, connID domain.ConnectionID) error {
	err := refreshIfOwner.Run(ctx, s.client, []string{s.key(userID)}, connID.String(), s.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("failed to refresh presence: %w", err)
	}
	return nil
}

func (s *RedisPresenceStore) Lookup(ctx context.Context, userID domain.UserID) (*domain.PresenceEntry, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load presence: %w", err)
	}
	var entry domain.PresenceEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode presence entry: %w", err)
	}
	return &entry, nil
}

func (s *RedisPresenceStore) List(ctx context.Context) ([]domain.PresenceEntry, error) {
	var (
		entries []domain.PresenceEntry
		cursor  uint64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan presence: %w", err)
		}
		if len(keys) > 0 {
			values, err := s.client.MGet(ctx, keys...).Result()
			if err != nil {
				return nil, fmt.Errorf("failed to load presence: %w", err)
			}
			for _, v := range values {
				raw, ok := v.(string)
				if !ok {
					continue // expired between SCAN and MGET
				}
				var entry domain.PresenceEntry
				if err := json.Unmarshal([]byte(raw), &entry); err != nil {
					continue
				}
				entries = append(entries, entry)
			}
		}
		cursor = next
		if cursor == 0 {
			return entries, nil
		}
	}
}
