// Package history keeps each author's most recent forum texts in Redis so
// new submissions can be checked for near-duplicates:
//
//	Key:   modhist:<userID>
//	Value: list of texts, newest first, trimmed to the store size
//	TTL:   refreshed on every write
package history

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// KeyPrefix is the Redis key prefix for history lists.
	KeyPrefix = "modhist:"

	// DefaultTTL is how long an idle author's history is kept.
	DefaultTTL = 7 * 24 * time.Hour
)

// Store is a bounded per-author list of recent texts.
type Store struct {
	client *redis.Client
	size   int
	ttl    time.Duration
}

// NewStore creates a store keeping at most size texts per author.
func NewStore(client *redis.Client, size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = 1
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, size: size, ttl: ttl}
}

func key(userID int64) string {
	return KeyPrefix + strconv.FormatInt(userID, 10)
}

// Recent returns the author's stored texts, newest first.
// A missing key yields an empty slice.
func (s *Store) Recent(ctx context.Context, userID int64) ([]string, error) {
	texts, err := s.client.LRange(ctx, key(userID), 0, int64(s.size-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return texts, nil
}

// Remember pushes text to the front of the author's list and trims it.
func (s *Store) Remember(ctx context.Context, userID int64, text string) error {
	k := key(userID)

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, k, text)
	pipe.LTrim(ctx, k, 0, int64(s.size-1))
	pipe.Expire(ctx, k, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Forget drops the author's history.
func (s *Store) Forget(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}
