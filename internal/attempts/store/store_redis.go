package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"empverify/internal/attempts/models"
)

const attemptKeyPrefix = "attempts:"

// recordFailureScript increments and blocks in one round trip so the threshold
// check and the increment cannot interleave across instances.
// Returns {attempt_count, is_blocked, just_blocked}.
var recordFailureScript = redis.NewScript(`
local count = redis.call('HINCRBY', KEYS[1], 'attempt_count', 1)
local blocked = redis.call('HGET', KEYS[1], 'is_blocked')
local just = 0
if blocked ~= '1' and count >= tonumber(ARGV[1]) then
	redis.call('HSET', KEYS[1], 'is_blocked', '1', 'blocked_at', ARGV[2])
	blocked = '1'
	just = 1
end
redis.call('HSET', KEYS[1], 'last_attempt_at', ARGV[2])
local isBlocked = 0
if blocked == '1' then isBlocked = 1 end
return {count, isBlocked, just}
`)

// RedisStore keeps attempt counters in Redis hashes without expiry.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key models.Key) (*models.Attempt, error) {
	fields, err := s.client.HGetAll(ctx, redisKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	a := &models.Attempt{VerifierID: key.VerifierID, EmployeeID: key.EmployeeID}
	if a.AttemptCount, err = strconv.Atoi(fields["attempt_count"]); err != nil {
		return nil, fmt.Errorf("parse attempt count: %w", err)
	}
	a.IsBlocked = fields["is_blocked"] == "1"
	if v := fields["blocked_at"]; v != "" && a.IsBlocked {
		t, err := parseUnixNano(v)
		if err != nil {
			return nil, err
		}
		a.BlockedAt = &t
	}
	if v := fields["last_attempt_at"]; v != "" {
		if a.LastAttemptAt, err = parseUnixNano(v); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (s *RedisStore) RecordFailure(ctx context.Context, key models.Key, threshold int, now time.Time) (*models.FailureResult, error) {
	vals, err := recordFailureScript.Run(ctx, s.client, []string{redisKey(key)}, threshold, now.UnixNano()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("record attempt failure: %w", err)
	}
	if len(vals) != 3 {
		return nil, errors.New("record attempt failure: unexpected script result")
	}
	return &models.FailureResult{
		AttemptCount: int(vals[0]),
		IsBlocked:    vals[1] == 1,
		JustBlocked:  vals[2] == 1,
	}, nil
}

func (s *RedisStore) Reset(ctx context.Context, key models.Key) error {
	k := redisKey(key)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, k, "attempt_count", 0, "is_blocked", "0")
	pipe.HDel(ctx, k, "blocked_at")
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("reset attempts: %w", err)
	}
	return nil
}

func redisKey(key models.Key) string {
	return attemptKeyPrefix + key.String()
}

func parseUnixNano(v string) (time.Time, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp: %w", err)
	}
	return time.Unix(0, n).UTC(), nil
}
