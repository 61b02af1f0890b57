package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"threads-zapier/internal/models"
)

const tokenKeyPrefix = "threads:token:"

// defaultTokenTTL bounds how long a token without an expiry lives in Redis.
const defaultTokenTTL = 30 * 24 * time.Hour

// RedisStore is a TokenStore backed by Redis. Entries carry a TTL derived
// from the token's own expiry plus a grace period so refresh tokens remain
// usable after the access token lapses.
type RedisStore struct {
	client *redis.Client
}

// RedisConfig holds connection settings for the Redis token store.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	PoolSize int
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Save stores the token for the user, replacing any previous one.
func (r *RedisStore) Save(ctx context.Context, userID string, token models.TokenPayload) (*models.StoredToken, error) {
	stored := models.StoredToken{
		UserID:     userID,
		Token:      token,
		ObtainedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := r.client.Set(ctx, tokenKeyPrefix+userID, data, tokenTTL(&stored)).Err(); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}

	return &stored, nil
}

// Get returns the stored token for the user, or (nil, nil) when absent.
func (r *RedisStore) Get(ctx context.Context, userID string) (*models.StoredToken, error) {
	data, err := r.client.Get(ctx, tokenKeyPrefix+userID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	var stored models.StoredToken
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &stored, nil
}

// Delete removes the stored token for the user.
func (r *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, tokenKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connections.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// tokenTTL keeps the entry for the token's lifetime plus a day of grace,
// capped at the default TTL. Tokens without an expiry get the default.
func tokenTTL(stored *models.StoredToken) time.Duration {
	expiresAt, ok := stored.ExpiresAt()
	if !ok {
		return defaultTokenTTL
	}
	ttl := time.Until(expiresAt) + 24*time.Hour
	if ttl <= 0 || ttl > defaultTokenTTL {
		return defaultTokenTTL
	}
	return ttl
}
