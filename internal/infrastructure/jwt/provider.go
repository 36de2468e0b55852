package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/taskhive-api/internal/config"
)

// Token purposes. The purpose is carried as an explicit claim and checked on
// verification, so a refresh token can never pass as an access token even if
// the two signing secrets were ever misconfigured to the same value.
const (
	PurposeAccess  = "access"
	PurposeRefresh = "refresh"
)

// Claims holds the JWT payload fields.
type Claims struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 JWTs. Access and refresh tokens use
// distinct secrets and TTLs.
type Provider struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, errors.New("access and refresh token secrets must differ")
	}
	return &Provider{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
	}, nil
}

// IssueAccess mints a short-lived access token for the given identity.
func (p *Provider) IssueAccess(userID, email string) (string, error) {
	return p.sign(userID, email, PurposeAccess, p.accessSecret, p.accessTTL)
}

// IssueRefresh mints a long-lived refresh token for the given identity.
func (p *Provider) IssueRefresh(userID, email string) (string, error) {
	return p.sign(userID, email, PurposeRefresh, p.refreshSecret, p.refreshTTL)
}

// RefreshTTL is the lifetime of refresh tokens; the session row shares it.
func (p *Provider) RefreshTTL() time.Duration {
	return p.refreshTTL
}

func (p *Provider) sign(userID, email, purpose string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:  userID,
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Verify checks signature, expiry and purpose. The secret is selected by the
// expected purpose, so a token of the other kind fails the signature check
// before the purpose claim is even compared.
func (p *Provider) Verify(tokenStr, purpose string) (*Claims, error) {
	secret := p.accessSecret
	if purpose == PurposeRefresh {
		secret = p.refreshSecret
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("token purpose %q, expected %q", claims.Purpose, purpose)
	}
	return claims, nil
}
