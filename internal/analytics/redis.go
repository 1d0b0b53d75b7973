package analytics

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisSink appends records to one Redis stream per session, keyed
// "<prefix>:<sessionID>".
type RedisSink struct {
	rdb    *redis.Client
	prefix string
	maxLen int64
}

// NewRedisSink creates a sink from a connection URL.
func NewRedisSink(redisURL, prefix string) (*RedisSink, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisSinkFromClient(rdb, prefix), nil
}

// NewRedisSinkFromClient wraps an existing redis.Client for use in tests.
func NewRedisSinkFromClient(rdb *redis.Client, prefix string) *RedisSink {
	return &RedisSink{rdb: rdb, prefix: prefix, maxLen: 10000}
}

// StreamKey returns the stream holding a session's records.
func (s *RedisSink) StreamKey(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *RedisSink) Write(ctx context.Context, r Record) error {
	bid := ""
	if r.Bid != nil {
		bid = r.Bid.String()
	}
	err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.StreamKey(r.SessionID),
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"round":   strconv.Itoa(r.Round),
			"time":    strconv.FormatFloat(r.Time, 'f', 4, 64),
			"role":    r.Role,
			"action":  r.Action,
			"bid":     bid,
			"utility": r.UtilityString(),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", s.StreamKey(r.SessionID), err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisSink) Close() error {
	return s.rdb.Close()
}
