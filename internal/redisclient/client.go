package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetClientToken returns the cached PSP client token for a credential
// fingerprint, or "" on a cache miss.
func (c *Client) GetClientToken(ctx context.Context, fingerprint string) (string, error) {
	token, err := c.rdb.Get(ctx, clientTokenKey(fingerprint)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// SetClientToken caches a PSP client token with a TTL
func (c *Client) SetClientToken(ctx context.Context, fingerprint, token string, ttl time.Duration) error {
	return c.rdb.Set(ctx, clientTokenKey(fingerprint), token, ttl).Err()
}

// InvalidateClientToken drops a cached client token
func (c *Client) InvalidateClientToken(ctx context.Context, fingerprint string) error {
	return c.rdb.Del(ctx, clientTokenKey(fingerprint)).Err()
}

func clientTokenKey(fingerprint string) string {
	return fmt.Sprintf("psp:client_token:%s", fingerprint)
}

// SetLastReconcileRun records the summary of the most recent reconciliation
// pass for operator inspection.
func (c *Client) SetLastReconcileRun(ctx context.Context, summary interface{}) error {
	payload, err := json.Marshal(map[string]interface{}{
		"finished_at": time.Now().UTC(),
		"summary":     summary,
	})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, "reconcile:last_run", payload, 0).Err()
}

// GetLastReconcileRun returns the recorded summary of the most recent
// reconciliation pass, or "" if none has run yet.
func (c *Client) GetLastReconcileRun(ctx context.Context) (string, error) {
	raw, err := c.rdb.Get(ctx, "reconcile:last_run").Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return raw, nil
}
