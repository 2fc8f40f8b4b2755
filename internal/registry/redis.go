package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "notifyd:device:"

// RedisRegistry implements Registry on top of go-redis: JSON-encoded
// values under a namespaced key, with the connection verified by a
// bounded Ping at construction time so a bad address fails fast instead
// of surfacing on the first real request.
type RedisRegistry struct {
	client *redis.Client
}

// NewRedis dials addr and verifies the connection before returning.
func NewRedis(addr, password string, db int) (*RedisRegistry, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("registry: connecting to redis at %s: %w", addr, err)
	}
	return &RedisRegistry{client: client}, nil
}

func deviceKey(id string) string { return keyPrefix + id }

func (r *RedisRegistry) Register(ctx context.Context, d Device) error {
	if d.LastSeen.IsZero() {
		d.LastSeen = time.Now()
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("registry: encoding device %s: %w", d.ID, err)
	}
	return r.client.Set(ctx, deviceKey(d.ID), payload, 0).Err()
}

func (r *RedisRegistry) Lookup(ctx context.Context, deviceID string) (Device, error) {
	raw, err := r.client.Get(ctx, deviceKey(deviceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Device{}, ErrNotFound
	}
	if err != nil {
		return Device{}, fmt.Errorf("registry: looking up %s: %w", deviceID, err)
	}
	var d Device
	if err := json.Unmarshal(raw, &d); err != nil {
		return Device{}, fmt.Errorf("registry: decoding device %s: %w", deviceID, err)
	}
	return d, nil
}

func (r *RedisRegistry) Touch(ctx context.Context, deviceID string, at time.Time) error {
	d, err := r.Lookup(ctx, deviceID)
	if err != nil {
		return err
	}
	d.LastSeen = at
	return r.Register(ctx, d)
}

func (r *RedisRegistry) Forget(ctx context.Context, deviceID string) error {
	return r.client.Del(ctx, deviceKey(deviceID)).Err()
}

// Close releases the underlying connection pool.
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}
