package otp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"empverify/internal/auth/models"
	"empverify/pkg/platform/sentinel"
)

const otpKeyPrefix = "otp:"

// incrementScript bumps attempts only for an existing code, so a racing delete
// cannot resurrect the key. Returns -1 when the code is gone.
var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
return redis.call('HINCRBY', KEYS[1], 'attempts', 1)
`)

// RedisStore keeps codes in Redis hashes that expire with the code.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, otp *models.OTP) error {
	k := otpKeyPrefix + otp.Email
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, k)
	pipe.HSet(ctx, k,
		"code_hash", otp.CodeHash,
		"attempts", otp.Attempts,
		"expires_at", otp.ExpiresAt.UnixNano(),
		"created_at", otp.CreatedAt.UnixNano(),
	)
	pipe.PExpireAt(ctx, k, otp.ExpiresAt)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, email string) (*models.OTP, error) {
	fields, err := s.client.HGetAll(ctx, otpKeyPrefix+email).Result()
	if err != nil {
		return nil, fmt.Errorf("find otp: %w", err)
	}
	if len(fields) == 0 {
		return nil, sentinel.ErrNotFound
	}
	otp := &models.OTP{Email: email, CodeHash: fields["code_hash"]}
	if otp.Attempts, err = strconv.Atoi(fields["attempts"]); err != nil {
		return nil, fmt.Errorf("parse otp attempts: %w", err)
	}
	if otp.ExpiresAt, err = parseUnixNano(fields["expires_at"]); err != nil {
		return nil, err
	}
	if otp.CreatedAt, err = parseUnixNano(fields["created_at"]); err != nil {
		return nil, err
	}
	return otp, nil
}

func (s *RedisStore) IncrementAttempts(ctx context.Context, email string) (int, error) {
	n, err := incrementScript.Run(ctx, s.client, []string{otpKeyPrefix + email}).Int()
	if err != nil {
		return 0, fmt.Errorf("increment otp attempts: %w", err)
	}
	if n < 0 {
		return 0, sentinel.ErrNotFound
	}
	return n, nil
}

func (s *RedisStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, otpKeyPrefix+email).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op; keys expire on their own.
func (s *RedisStore) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}

func parseUnixNano(v string) (time.Time, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp: %w", err)
	}
	return time.Unix(0, n).UTC(), nil
}
