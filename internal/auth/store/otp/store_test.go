package otp

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"empverify/internal/auth/models"
	"empverify/pkg/platform/sentinel"
)

type otpStore interface {
	Save(ctx context.Context, otp *models.OTP) error
	Find(ctx context.Context, email string) (*models.OTP, error)
	IncrementAttempts(ctx context.Context, email string) (int, error)
	Delete(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type StoreSuite struct {
	suite.Suite
	newStore func(t *testing.T) otpStore
	store    otpStore
	ctx      context.Context
	now      time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func(*testing.T) otpStore { return NewInMemory() }})
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func(t *testing.T) otpStore {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		return NewRedis(client)
	}})
}

func (s *StoreSuite) SetupTest() {
	s.store = s.newStore(s.T())
	s.ctx = context.Background()
	s.now = time.Now().UTC().Truncate(time.Microsecond)
}

func (s *StoreSuite) code(email string) *models.OTP {
	return &models.OTP{
		Email:     email,
		CodeHash:  "$2a$04$hash",
		ExpiresAt: s.now.Add(models.OTPExpiry),
		CreatedAt: s.now,
	}
}

func (s *StoreSuite) TestSaveFindRoundTrip() {
	s.Require().NoError(s.store.Save(s.ctx, s.code("hr@acme.example")))

	got, err := s.store.Find(s.ctx, "hr@acme.example")
	s.Require().NoError(err)
	s.Equal("$2a$04$hash", got.CodeHash)
	s.Equal(0, got.Attempts)
	s.True(got.ExpiresAt.Equal(s.now.Add(models.OTPExpiry)))
	s.True(got.CreatedAt.Equal(s.now))
}

func (s *StoreSuite) TestFindMissing() {
	_, err := s.store.Find(s.ctx, "nobody@acme.example")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreSuite) TestSaveResetsAttempts() {
	s.Require().NoError(s.store.Save(s.ctx, s.code("hr@acme.example")))
	_, err := s.store.IncrementAttempts(s.ctx, "hr@acme.example")
	s.Require().NoError(err)

	s.Require().NoError(s.store.Save(s.ctx, s.code("hr@acme.example")))
	got, err := s.store.Find(s.ctx, "hr@acme.example")
	s.Require().NoError(err)
	s.Equal(0, got.Attempts)
}

func (s *StoreSuite) TestIncrementAttempts() {
	s.Require().NoError(s.store.Save(s.ctx, s.code("hr@acme.example")))

	for want := 1; want <= 3; want++ {
		n, err := s.store.IncrementAttempts(s.ctx, "hr@acme.example")
		s.Require().NoError(err)
		s.Equal(want, n)
	}

	_, err := s.store.IncrementAttempts(s.ctx, "nobody@acme.example")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreSuite) TestDelete() {
	s.Require().NoError(s.store.Save(s.ctx, s.code("hr@acme.example")))
	s.Require().NoError(s.store.Delete(s.ctx, "hr@acme.example"))
	s.Require().NoError(s.store.Delete(s.ctx, "hr@acme.example"))

	_, err := s.store.Find(s.ctx, "hr@acme.example")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func TestInMemoryDeleteExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := NewInMemory()
	_ = s.Save(ctx, &models.OTP{Email: "old@acme.example", ExpiresAt: now.Add(-time.Minute)})
	_ = s.Save(ctx, &models.OTP{Email: "new@acme.example", ExpiresAt: now.Add(time.Minute)})

	n, err := s.DeleteExpired(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpired = %d, %v; want 1, nil", n, err)
	}
	if _, err := s.Find(ctx, "new@acme.example"); err != nil {
		t.Fatalf("unexpired code removed: %v", err)
	}
}
