package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/taskhive-api/internal/domain"
)

// codeLength is the number of digits in a generated code.
const codeLength = 6

// Purposes namespace the store key, so a password-reset code can never
// satisfy an email verification and vice versa.
const (
	PurposeEmailVerify   = "email-verify"
	PurposePasswordReset = "password-reset"
)

// EmailVerifyKey scopes a code to email ownership verification; the namespace
// is shared by registration and email-change flows.
func EmailVerifyKey(email string) string {
	return PurposeEmailVerify + ":" + email
}

// PasswordResetKey scopes a code to the password reset flow.
func PasswordResetKey(email string) string {
	return PurposePasswordReset + ":" + email
}

// Store is the ephemeral keyed store backing the manager. Put must atomically
// replace any prior record for the same key.
type Store interface {
	Put(ctx context.Context, rec *domain.OTPRecord) error
	Get(ctx context.Context, key string) (*domain.OTPRecord, error)
	Delete(ctx context.Context, key string) error
}

// Manager issues and validates single-use, purpose-scoped one-time codes.
type Manager struct {
	store Store
	ttl   time.Duration
}

func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl}
}

// Issue generates a fresh code and stores it under key, discarding any code
// previously active for the same key (resend = invalidate-and-replace).
func (m *Manager) Issue(ctx context.Context, key string) (string, error) {
	code, err := Generate()
	if err != nil {
		return "", err
	}
	rec := &domain.OTPRecord{
		Key:       key,
		Code:      code,
		ExpiresAt: time.Now().Add(m.ttl).Unix(),
	}
	if err := m.store.Put(ctx, rec); err != nil {
		return "", err
	}
	return code, nil
}

// Verify reports whether submitted matches the active code for key. Absent,
// mismatched and expired codes all report false. A successful match deletes
// the record, so the same code cannot be used twice.
func (m *Manager) Verify(ctx context.Context, key, submitted string) (bool, error) {
	rec, err := m.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if rec.Code != submitted {
		return false, nil
	}
	// DynamoDB TTL deletion is lazy, so the expiry check must happen here too.
	if rec.ExpiresAt < time.Now().Unix() {
		return false, nil
	}
	if err := m.store.Delete(ctx, key); err != nil {
		slog.Warn("failed to delete used OTP record", "key", key, "err", err)
	}
	return true, nil
}

// Generate returns a fixed-length numeric code from a secure random source.
func Generate() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeLength, n), nil
}
