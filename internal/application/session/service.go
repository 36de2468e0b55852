package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskhive-api/internal/domain"
	jwtinfra "github.com/taskhive-api/internal/infrastructure/jwt"
	"github.com/taskhive-api/internal/pkg/password"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	User   *domain.User
	Tokens *domain.TokenPair
}

// Service handles credential login and the rotating refresh-token session.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	GetCurrent(ctx context.Context, userID string) (*domain.User, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	IsCurrent(ctx context.Context, userID, token string) (bool, error)
	Revoke(ctx context.Context, userID string) error
}

type tokenIssuer interface {
	IssueAccess(userID, email string) (string, error)
	IssueRefresh(userID, email string) (string, error)
	Verify(token, purpose string) (*jwtinfra.Claims, error)
	RefreshTTL() time.Duration
}

type service struct {
	users    userStore
	sessions sessionStore
	tokens   tokenIssuer
}

func NewService(users userStore, sessions sessionStore, tokens tokenIssuer) Service {
	return &service{users: users, sessions: sessions, tokens: tokens}
}

// Login authenticates by email and password. Unknown email and wrong password
// fail with the same message and status, so responses never reveal whether an
// account exists.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errInvalidCredentials()
		}
		return nil, err
	}
	if !u.Enable {
		return nil, errInvalidCredentials()
	}
	if !password.Compare(req.Password, u.PasswordHash) {
		return nil, errInvalidCredentials()
	}

	pair, err := s.issuePair(ctx, u.UserID, u.Email)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: u, Tokens: pair}, nil
}

// Refresh rotates the session: the presented token must verify as a refresh
// token and still be the stored current one. The new pair replaces it, so the
// presented token is rejected on any further use even while cryptographically
// unexpired.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken, jwtinfra.PurposeRefresh)
	if err != nil {
		return nil, fmt.Errorf("invalid or expired refresh token: %w", domain.ErrUnauthorized)
	}
	current, err := s.sessions.IsCurrent(ctx, claims.UserID, refreshToken)
	if err != nil {
		return nil, err
	}
	if !current {
		return nil, fmt.Errorf("invalid or expired refresh token: %w", domain.ErrUnauthorized)
	}
	return s.issuePair(ctx, claims.UserID, claims.Email)
}

func (s *service) Logout(ctx context.Context, userID string) error {
	return s.sessions.Revoke(ctx, userID)
}

// GetCurrent is the "who am I" call — the one access-token path that reads
// the persistent store instead of trusting the claims alone.
func (s *service) GetCurrent(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	return u, nil
}

func (s *service) issuePair(ctx context.Context, userID, email string) (*domain.TokenPair, error) {
	access, err := s.tokens.IssueAccess(userID, email)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(userID, email)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		UserID:       userID,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(s.tokens.RefreshTTL()).Unix(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// errInvalidCredentials is shared by every login failure branch so the error
// payload is byte-identical regardless of cause.
func errInvalidCredentials() error {
	return fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
}
