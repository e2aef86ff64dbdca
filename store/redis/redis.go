// Package redis persists restaurant snapshots as JSON values in Redis. Useful
// when several API replicas share state and durability is handled by Redis
// itself (AOF/RDB).
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/warp/cost-ledger/ledger"
)

const keyPrefix = "costledger:restaurant:"

// Store keeps one key per restaurant.
type Store struct {
	rdb *goredis.Client
}

// New parses redisURL and validates connectivity.
func New(ctx context.Context, redisURL string) (*Store, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{rdb: rdb}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *goredis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func key(restaurantID string) string { return keyPrefix + restaurantID }

// Load returns (nil, nil) for a restaurant that has never been saved.
func (s *Store) Load(ctx context.Context, restaurantID string) (*ledger.Snapshot, error) {
	raw, err := s.rdb.Get(ctx, key(restaurantID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap ledger.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", restaurantID, err)
	}
	return &snap, nil
}

func (s *Store) Save(ctx context.Context, restaurantID string, snap *ledger.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", restaurantID, err)
	}
	return s.rdb.Set(ctx, key(restaurantID), raw, 0).Err()
}

// Restaurants scans the keyspace for stored restaurants.
func (s *Store) Restaurants(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), keyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}
