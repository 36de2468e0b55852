package http

import (
	"context"
	"io"

	"github.com/taskhive-api/internal/domain"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	// GetByEmail resolves a user via the `email-index` GSI.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByPendingEmail resolves a user mid email change via the
	// `pending_email-index` GSI.
	GetByPendingEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
}

// SessionRepository is the minimal interface the router requires from a
// session store. One row per user; Put overwrites, which is what revokes the
// previous refresh token.
type SessionRepository interface {
	Put(ctx context.Context, s *domain.Session) error
	IsCurrent(ctx context.Context, userID, token string) (bool, error)
	Revoke(ctx context.Context, userID string) error
}

// PendingRepository is the minimal interface the router requires from a
// staged-registration store.
type PendingRepository interface {
	Put(ctx context.Context, p *domain.PendingRegistration) error
	Get(ctx context.Context, email string) (*domain.PendingRegistration, error)
	Delete(ctx context.Context, email string) error
}

// TaskRepository is the minimal interface the router requires from a task store.
type TaskRepository interface {
	Put(ctx context.Context, t *domain.Task) error
	Get(ctx context.Context, userID, taskID string) (*domain.Task, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Task, error)
	Update(ctx context.Context, userID, taskID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID, taskID string) error
}

// ObjectStore is the minimal interface the router requires from an object
// storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
