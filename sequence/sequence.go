package sequence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const basketSeqKey = "basket:seq"

// RedisSequence issues monotonic basket numbers from a Redis counter so
// every API instance draws from the same series.
type RedisSequence struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisSequence(rdb *redis.Client, prefix string) *RedisSequence {
	return &RedisSequence{rdb: rdb, prefix: prefix}
}

func (s *RedisSequence) Next(ctx context.Context) (string, error) {
	n, err := s.rdb.Incr(ctx, basketSeqKey).Result()
	if err != nil {
		return "", fmt.Errorf("incr %s: %w", basketSeqKey, err)
	}
	return FormatSequence(s.prefix, n), nil
}

// Seed moves the counter forward to at least n, e.g. after restoring a
// database dump. It never moves it back.
func (s *RedisSequence) Seed(ctx context.Context, n int64) error {
	cur, err := s.rdb.Get(ctx, basketSeqKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if cur >= n {
		return nil
	}
	return s.rdb.Set(ctx, basketSeqKey, n, 0).Err()
}

func FormatSequence(prefix string, n int64) string {
	return fmt.Sprintf("%s-%06d", prefix, n)
}

// RandomNumberer is used when no Redis is configured: date plus four
// random hex digits. Collisions are caught by the caller.
type RandomNumberer struct {
	prefix string
	now    func() time.Time
}

func NewRandomNumberer(prefix string) *RandomNumberer {
	return &RandomNumberer{prefix: prefix, now: time.Now}
}

func (n *RandomNumberer) Next(context.Context) (string, error) {
	id := uuid.New()
	suffix := strings.ToUpper(fmt.Sprintf("%x", id[:2]))
	return fmt.Sprintf("%s-%s-%s", n.prefix, n.now().UTC().Format("060102"), suffix), nil
}
