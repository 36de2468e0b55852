package otp

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive-api/internal/domain"
)

// memStore is an in-memory Store; OTP behavior is stateful (issue then
// verify), so a map beats a call-by-call mock here.
type memStore struct {
	records map[string]*domain.OTPRecord
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*domain.OTPRecord)}
}

func (s *memStore) Put(_ context.Context, rec *domain.OTPRecord) error {
	s.records[rec.Key] = rec
	return nil
}

func (s *memStore) Get(_ context.Context, key string) (*domain.OTPRecord, error) {
	rec, ok := s.records[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	delete(s.records, key)
	return nil
}

func TestGenerate_SixDigits(t *testing.T) {
	code, err := Generate()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)
}

func TestVerify_HappyPath_ConsumesCode(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, 10*time.Minute)

	code, err := m.Issue(context.Background(), EmailVerifyKey("a@b.com"))
	require.NoError(t, err)

	ok, err := m.Verify(context.Background(), EmailVerifyKey("a@b.com"), code)
	require.NoError(t, err)
	assert.True(t, ok)

	// Single use: the same code fails the second time.
	ok, err = m.Verify(context.Background(), EmailVerifyKey("a@b.com"), code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_Mismatch_KeepsCodeActive(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, 10*time.Minute)

	code, err := m.Issue(context.Background(), EmailVerifyKey("a@b.com"))
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	ok, err := m.Verify(context.Background(), EmailVerifyKey("a@b.com"), wrong)
	require.NoError(t, err)
	assert.False(t, ok)

	// A failed attempt must not burn the real code.
	ok, err = m.Verify(context.Background(), EmailVerifyKey("a@b.com"), code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_AbsentKey(t *testing.T) {
	m := NewManager(newMemStore(), 10*time.Minute)

	ok, err := m.Verify(context.Background(), EmailVerifyKey("nobody@b.com"), "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_Expired(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, -time.Minute) // already expired on issue

	code, err := m.Issue(context.Background(), EmailVerifyKey("a@b.com"))
	require.NoError(t, err)

	ok, err := m.Verify(context.Background(), EmailVerifyKey("a@b.com"), code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIssue_Resend_InvalidatesPreviousCode(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, 10*time.Minute)

	first, err := m.Issue(context.Background(), EmailVerifyKey("a@b.com"))
	require.NoError(t, err)
	second, err := m.Issue(context.Background(), EmailVerifyKey("a@b.com"))
	require.NoError(t, err)

	if first != second {
		ok, err := m.Verify(context.Background(), EmailVerifyKey("a@b.com"), first)
		require.NoError(t, err)
		assert.False(t, ok, "superseded code must not verify")
	}

	ok, err := m.Verify(context.Background(), EmailVerifyKey("a@b.com"), second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKeys_PurposesAreScoped(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, 10*time.Minute)

	code, err := m.Issue(context.Background(), PasswordResetKey("a@b.com"))
	require.NoError(t, err)

	// A reset code must never satisfy email verification for the same address.
	ok, err := m.Verify(context.Background(), EmailVerifyKey("a@b.com"), code)
	require.NoError(t, err)
	assert.False(t, ok)
}
