package jwtinfra

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive-api/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    24 * time.Hour,
	}
}

func TestNewProvider_RequiresSecrets(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenSecret = ""
	_, err := NewProvider(cfg)
	assert.Error(t, err)
}

func TestNewProvider_RejectsEqualSecrets(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshTokenSecret = cfg.AccessTokenSecret
	_, err := NewProvider(cfg)
	assert.Error(t, err)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	p, err := NewProvider(testConfig())
	require.NoError(t, err)

	token, err := p.IssueAccess("user-1", "a@b.com")
	require.NoError(t, err)

	claims, err := p.Verify(token, PurposeAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, PurposeAccess, claims.Purpose)
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	p, err := NewProvider(testConfig())
	require.NoError(t, err)

	token, err := p.IssueRefresh("user-1", "a@b.com")
	require.NoError(t, err)

	claims, err := p.Verify(token, PurposeRefresh)
	require.NoError(t, err)
	assert.Equal(t, PurposeRefresh, claims.Purpose)
}

func TestVerify_PurposeCrossRejection(t *testing.T) {
	p, err := NewProvider(testConfig())
	require.NoError(t, err)

	access, err := p.IssueAccess("user-1", "a@b.com")
	require.NoError(t, err)
	refresh, err := p.IssueRefresh("user-1", "a@b.com")
	require.NoError(t, err)

	_, err = p.Verify(access, PurposeRefresh)
	assert.Error(t, err, "access token must not pass as refresh")
	_, err = p.Verify(refresh, PurposeAccess)
	assert.Error(t, err, "refresh token must not pass as access")
}

func TestVerify_ExpiredToken(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -time.Minute
	p, err := NewProvider(cfg)
	require.NoError(t, err)

	token, err := p.IssueAccess("user-1", "a@b.com")
	require.NoError(t, err)

	_, err = p.Verify(token, PurposeAccess)
	assert.Error(t, err)
}

func TestVerify_Garbage(t *testing.T) {
	p, err := NewProvider(testConfig())
	require.NoError(t, err)

	_, err = p.Verify("not.a.token", PurposeAccess)
	assert.Error(t, err)
}
