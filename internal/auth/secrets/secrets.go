// Package secrets hashes passwords and one-time codes and generates codes.
package secrets

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"

	dErrors "empverify/pkg/domain-errors"
)

// PasswordCost matches the work factor used for stored passwords.
const PasswordCost = 12

// Hasher hashes secrets with a fixed bcrypt cost. The zero value uses PasswordCost.
type Hasher struct {
	Cost int
}

// Hash creates a bcrypt hash of the provided secret.
func (h Hasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "secret cannot be empty")
	}
	cost := h.Cost
	if cost == 0 {
		cost = PasswordCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "secret is too long")
		}
		return "", fmt.Errorf("could not hash secret: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether secret matches hash. Hashes that are not bcrypt never match.
func (h Hasher) Verify(secret, hash string) (bool, error) {
	if !strings.HasPrefix(hash, "$2") {
		return false, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("could not verify secret: %w", err)
	}
	return true, nil
}

// GenerateCode returns a uniformly random numeric code of n digits without a
// leading zero.
func GenerateCode(n int) (string, error) {
	if n < 1 {
		return "", errors.New("code length must be positive")
	}
	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n-1)), nil)
	span := new(big.Int).Sub(new(big.Int).Mul(low, big.NewInt(10)), low)
	v, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("could not generate code: %w", err)
	}
	return v.Add(v, low).String(), nil
}
