package snapshotcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"imsystem/internal/inventory/grid"
	"imsystem/pkg/models"

	"github.com/go-redis/redis/v8"
)

const (
	DefaultKey = "imsystem:inventory:snapshot"
	DefaultTTL = 24 * time.Hour
)

type cachedSnapshot struct {
	Records   []models.Record `json:"records"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Cache stores the last good snapshot in redis as one JSON value.
type Cache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func New(client *redis.Client, key string, ttl time.Duration) *Cache {
	if key == "" {
		key = DefaultKey
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, key: key, ttl: ttl}
}

func (c *Cache) Save(ctx context.Context, snap *grid.Snapshot) error {
	payload, err := json.Marshal(cachedSnapshot{Records: snap.Records, FetchedAt: snap.FetchedAt})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot to redis: %w", err)
	}
	return nil
}

// Load returns nil without error when nothing is cached.
func (c *Cache) Load(ctx context.Context) (*grid.Snapshot, error) {
	payload, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot from redis: %w", err)
	}

	var cached cachedSnapshot
	if err := json.Unmarshal(payload, &cached); err != nil {
		return nil, fmt.Errorf("decode cached snapshot: %w", err)
	}
	return grid.NewSnapshot(cached.Records, cached.FetchedAt), nil
}

func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
