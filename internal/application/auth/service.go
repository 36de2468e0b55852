package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskhive-api/internal/domain"
	"github.com/taskhive-api/internal/otp"
	"github.com/taskhive-api/internal/pkg/id"
	"github.com/taskhive-api/internal/pkg/password"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldEmail           = "email"
	fieldPendingEmail    = "pending_email"
	fieldEmailVerifiedAt = "email_verified_at"
	fieldPasswordHash    = "password_hash"
)

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type ResendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ConfirmPasswordResetRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

type EmailChangeRequest struct {
	NewEmail string `json:"new_email" validate:"required,email"`
}

// Service orchestrates the identity lifecycle: staged registration, OTP email
// verification (shared between registration and email change), password reset
// and password change.
type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) error
	VerifyEmail(ctx context.Context, email, code string) (*domain.User, *domain.TokenPair, error)
	ResendCode(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (*domain.TokenPair, error)
	RequestEmailChange(ctx context.Context, userID, newEmail string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPendingEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type pendingStore interface {
	Put(ctx context.Context, p *domain.PendingRegistration) error
	Get(ctx context.Context, email string) (*domain.PendingRegistration, error)
	Delete(ctx context.Context, email string) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Revoke(ctx context.Context, userID string) error
}

type codeManager interface {
	Issue(ctx context.Context, key string) (string, error)
	Verify(ctx context.Context, key, submitted string) (bool, error)
}

type mailer interface {
	SendCode(to, code, purpose string) error
}

type tokenIssuer interface {
	IssueAccess(userID, email string) (string, error)
	IssueRefresh(userID, email string) (string, error)
	RefreshTTL() time.Duration
}

type service struct {
	users      userStore
	pendings   pendingStore
	sessions   sessionStore
	codes      codeManager
	mailer     mailer
	tokens     tokenIssuer
	pendingTTL time.Duration
}

type ServiceDeps struct {
	UserRepo    userStore
	PendingRepo pendingStore
	SessionRepo sessionStore
	Codes       codeManager
	Mailer      mailer
	Tokens      tokenIssuer
	PendingTTL  time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:      deps.UserRepo,
		pendings:   deps.PendingRepo,
		sessions:   deps.SessionRepo,
		codes:      deps.Codes,
		mailer:     deps.Mailer,
		tokens:     deps.Tokens,
		pendingTTL: deps.PendingTTL,
	}
}

// Register stages a new account and sends a verification code. No tokens are
// issued before ownership of the email is proven, so a registration can never
// be hijacked into a usable session.
func (s *service) Register(ctx context.Context, req domain.RegisterRequest) error {
	email := normalizeEmail(req.Email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if _, err := s.pendings.Get(ctx, email); err == nil {
		return fmt.Errorf("registration already pending for this email: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	p := &domain.PendingRegistration{
		Email:        email,
		PasswordHash: hash,
		Name:         req.Name,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.pendingTTL).Unix(),
	}
	if err := s.pendings.Put(ctx, p); err != nil {
		return err
	}

	code, err := s.codes.Issue(ctx, otp.EmailVerifyKey(email))
	if err != nil {
		return err
	}
	return s.mailer.SendCode(email, code, otp.PurposeEmailVerify)
}

// VerifyEmail consumes a code from the shared email-verify namespace. A code
// can belong to a fresh registration or to an email change staged on an
// existing user; when both exist for the same address, the registration wins.
func (s *service) VerifyEmail(ctx context.Context, email, code string) (*domain.User, *domain.TokenPair, error) {
	email = normalizeEmail(email)

	pending, err := s.pendings.Get(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}
	var changeUser *domain.User
	if pending == nil {
		changeUser, err = s.users.GetByPendingEmail(ctx, email)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, fmt.Errorf("no pending verification for this email: %w", domain.ErrNotFound)
		}
		if err != nil {
			return nil, nil, err
		}
	}

	ok, err := s.codes.Verify(ctx, otp.EmailVerifyKey(email), code)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, fmt.Errorf("invalid or expired verification code: %w", domain.ErrUnauthorized)
	}

	now := time.Now().UTC()
	var u *domain.User
	if pending != nil {
		if err := s.pendings.Delete(ctx, email); err != nil {
			return nil, nil, err
		}
		u = &domain.User{
			UserID:          id.New(),
			Email:           email,
			Name:            pending.Name,
			PasswordHash:    pending.PasswordHash,
			EmailVerified:   true,
			EmailVerifiedAt: &now,
			Enable:          true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.users.Put(ctx, u); err != nil {
			return nil, nil, err
		}
	} else {
		updates := map[string]interface{}{
			fieldEmail:           email,
			fieldEmailVerifiedAt: now,
			fieldPendingEmail:    nil, // REMOVE
		}
		if err := s.users.Update(ctx, changeUser.UserID, updates); err != nil {
			return nil, nil, err
		}
		u = changeUser
		u.Email = email
		u.EmailVerifiedAt = &now
		u.PendingEmail = ""
	}

	pair, err := s.issuePair(ctx, u.UserID, u.Email)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// ResendCode regenerates the verification code for a pending registration or
// a staged email change. The previous code stops working the moment the new
// one is stored.
func (s *service) ResendCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return fmt.Errorf("email already verified: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if _, err := s.pendings.Get(ctx, email); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if _, err := s.users.GetByPendingEmail(ctx, email); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("no pending registration for this email: %w", domain.ErrNotFound)
			}
			return err
		}
	}

	code, err := s.codes.Issue(ctx, otp.EmailVerifyKey(email))
	if err != nil {
		return err
	}
	return s.mailer.SendCode(email, code, otp.PurposeEmailVerify)
}

// RequestPasswordReset sends a reset code when the account exists. An unknown
// email succeeds silently with no code issued and no email sent, so the
// response never discloses whether an account exists.
func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	code, err := s.codes.Issue(ctx, otp.PasswordResetKey(email))
	if err != nil {
		return err
	}
	return s.mailer.SendCode(u.Email, code, otp.PurposePasswordReset)
}

// ResetPassword sets a new password after validating the reset code, then
// revokes the user's session so any stolen refresh token dies with the old
// password.
func (s *service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return err
	}

	ok, err := s.codes.Verify(ctx, otp.PasswordResetKey(email), code)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("invalid or expired reset code: %w", domain.ErrUnauthorized)
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{fieldPasswordHash: hash}); err != nil {
		return err
	}
	return s.sessions.Revoke(ctx, u.UserID)
}

// ChangePassword verifies the current password, stores the new hash and
// rotates the caller's session, returning a fresh pair so the acting session
// is not locked out by its own revocation.
func (s *service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (*domain.TokenPair, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !password.Compare(currentPassword, u.PasswordHash) {
		return nil, fmt.Errorf("current password is incorrect: %w", domain.ErrUnauthorized)
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, userID, map[string]interface{}{fieldPasswordHash: hash}); err != nil {
		return nil, err
	}
	if err := s.sessions.Revoke(ctx, userID); err != nil {
		return nil, err
	}
	return s.issuePair(ctx, u.UserID, u.Email)
}

// RequestEmailChange stages newEmail on the user record and sends a code to
// the new address under the same namespace registration uses; the change only
// lands once VerifyEmail is called with that code.
func (s *service) RequestEmailChange(ctx context.Context, userID, newEmail string) error {
	newEmail = normalizeEmail(newEmail)

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.Email == newEmail {
		return fmt.Errorf("email already in use: %w", domain.ErrConflict)
	}
	if _, err := s.users.GetByEmail(ctx, newEmail); err == nil {
		return fmt.Errorf("email already in use: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if err := s.users.Update(ctx, userID, map[string]interface{}{fieldPendingEmail: newEmail}); err != nil {
		return err
	}
	code, err := s.codes.Issue(ctx, otp.EmailVerifyKey(newEmail))
	if err != nil {
		return err
	}
	return s.mailer.SendCode(newEmail, code, otp.PurposeEmailVerify)
}

// issuePair mints a fresh access/refresh pair and stores the refresh token as
// the user's single current session, replacing whatever was there.
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

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
