package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mapproperties/pkg/platform/sentinel"
)

// Redis key prefix for pending challenges
const challengeKeyPrefix = "otp:challenge:"

// Redis stores challenges with native key expiry, so every instance sees the
// same pending codes.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Put uses SET with EX for atomic set-with-expiry.
func (s *Redis) Put(ctx context.Context, key, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, challengeKeyPrefix+key, code, ttl).Err(); err != nil {
		return fmt.Errorf("store otp challenge: %w", err)
	}
	return nil
}

func (s *Redis) Get(ctx context.Context, key string) (string, error) {
	code, err := s.client.Get(ctx, challengeKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load otp challenge: %w", err)
	}
	return code, nil
}

// Take uses GETDEL so only one caller can consume a challenge.
func (s *Redis) Take(ctx context.Context, key string) (string, error) {
	code, err := s.client.GetDel(ctx, challengeKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("consume otp challenge: %w", err)
	}
	return code, nil
}
