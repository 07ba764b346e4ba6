// Package scoreboard keeps per-board rankings in Redis sorted sets.
package scoreboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"

	"github.com/beka-birhanu/vinom-sandbox/identity"
	"github.com/beka-birhanu/vinom-sandbox/service/i"
)

const keyPrefix = "scoreboard:"

// RedisScoreboard stores one sorted set per board, scored by step count, plus a hash of
// learner names.
type RedisScoreboard struct {
	client *redis.Client
	locker *redsync.Redsync
	ttl    time.Duration
}

// NewRedisScoreboard initializes a RedisScoreboard. Boards expire ttl after their first entry;
// a ttl of zero keeps them forever.
func NewRedisScoreboard(client *redis.Client, ttl time.Duration) i.Scoreboard {
	board := &RedisScoreboard{
		client: client,
		ttl:    ttl,
	}
	pool := goredis.NewPool(client)
	board.locker = redsync.New(pool)
	return board
}

func boardKey(board string) string { return keyPrefix + board }
func namesKey(board string) string { return keyPrefix + board + ":names" }

// Submit keeps the lowest step count per learner. The read-compare-write runs under a
// distributed lock on the board.
func (rs *RedisScoreboard) Submit(ctx context.Context, board string, learner identity.Learner, steps int) (bool, error) {
	mutex := rs.locker.NewMutex(boardKey(board) + ":lock")
	if err := mutex.LockContext(ctx); err != nil {
		return false, fmt.Errorf("locking board %s: %w", board, err)
	}
	defer func() {
		_, _ = mutex.UnlockContext(ctx)
	}()

	member := learner.ID.String()
	best, err := rs.client.ZScore(ctx, boardKey(board), member).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return false, err
	case float64(steps) >= best:
		return false, nil
	}

	_, err = rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, boardKey(board), redis.Z{Score: float64(steps), Member: member})
		pipe.HSet(ctx, namesKey(board), member, learner.Name)
		return nil
	})
	if err != nil {
		return false, err
	}

	// Set expiration only if it's not already set
	if rs.ttl > 0 {
		ttl, err := rs.client.TTL(ctx, boardKey(board)).Result()
		if err == nil && ttl == -1 {
			_ = rs.client.Expire(ctx, boardKey(board), rs.ttl).Err()
			_ = rs.client.Expire(ctx, namesKey(board), rs.ttl).Err()
		}
	}
	return true, nil
}

// Top retrieves up to limit entries with the lowest step counts.
func (rs *RedisScoreboard) Top(ctx context.Context, board string, limit int64) ([]i.ScoreEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	zs, err := rs.client.ZRangeWithScores(ctx, boardKey(board), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	if len(zs) == 0 {
		return nil, nil
	}

	members := make([]string, len(zs))
	for n, z := range zs {
		members[n] = z.Member.(string)
	}
	names, err := rs.client.HMGet(ctx, namesKey(board), members...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]i.ScoreEntry, len(zs))
	for n, z := range zs {
		name, _ := names[n].(string)
		entries[n] = i.ScoreEntry{
			Rank:      int64(n + 1),
			LearnerID: members[n],
			Name:      name,
			Steps:     int(z.Score),
		}
	}
	return entries, nil
}

// Count returns the number of learners on a board.
func (rs *RedisScoreboard) Count(ctx context.Context, board string) (int64, error) {
	return rs.client.ZCard(ctx, boardKey(board)).Result()
}
