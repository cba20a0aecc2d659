package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	webhookKeyTTL = 7 * 24 * time.Hour

	stateProcessing = "processing"
	stateProcessed  = "processed"
)

type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisStore struct {
	client      redisClient
	serviceName string
}

// NewRedisStore keeps one key per provider event, expiring after a week.
func NewRedisStore(client redisClient, serviceName string) IdempotencyStore {
	return &redisStore{client: client, serviceName: serviceName}
}

func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func (s *redisStore) key(provider, eventID string) string {
	return fmt.Sprintf("%s:webhook:%s:%s", s.serviceName, provider, eventID)
}

func (s *redisStore) Claim(ctx context.Context, rec WebhookRecord) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(rec.Provider, rec.EventID), stateProcessing, webhookKeyTTL).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (s *redisStore) MarkProcessed(ctx context.Context, provider, eventID string) error {
	return s.client.Set(ctx, s.key(provider, eventID), stateProcessed, redis.KeepTTL).Err()
}

func (s *redisStore) MarkFailed(ctx context.Context, provider, eventID, reason string) error {
	return s.client.Set(ctx, s.key(provider, eventID), "failed: "+reason, redis.KeepTTL).Err()
}

func (s *redisStore) Release(ctx context.Context, provider, eventID string) error {
	return s.client.Del(ctx, s.key(provider, eventID)).Err()
}
