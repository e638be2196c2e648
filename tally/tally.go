// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const tallyKeyPrefix = "poll:tally:"

// Cache keeps per-option answer counters in a Redis sorted set, one key per
// poll. It is a fast path only: the lifecycle service falls back to a
// database count whenever Redis is unavailable or cold.
type Cache struct {
	client *redis.Client
	ctx    context.Context
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{
		client: client,
		ctx:    context.Background(),
	}
}

func key(pollID string) string {
	return tallyKeyPrefix + pollID
}

// Increment bumps the counter for one option of a poll.
func (c *Cache) Increment(pollID, option string) error {
	return c.client.ZIncrBy(c.ctx, key(pollID), 1, option).Err()
}

// Counts returns the cached per-option counters for a poll. found is false
// when the poll has no cached tally at all (cold cache), in which case the
// caller should count from the database instead.
func (c *Cache) Counts(pollID string) (counts map[string]int, found bool, err error) {
	members, err := c.client.ZRangeWithScores(c.ctx, key(pollID), 0, -1).Result()
	if err != nil {
		return nil, false, err
	}
	if len(members) == 0 {
		return nil, false, nil
	}

	counts = make(map[string]int, len(members))
	for _, m := range members {
		option, ok := m.Member.(string)
		if !ok {
			continue
		}
		counts[option] = int(m.Score)
	}
	return counts, true, nil
}

// Drop removes the cached tally for a poll (on poll deletion).
func (c *Cache) Drop(pollID string) error {
	return c.client.Del(c.ctx, key(pollID)).Err()
}
