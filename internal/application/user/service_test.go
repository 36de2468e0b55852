package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taskhive-api/internal/domain"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}
func (m *mockUserStore) SoftDelete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Revoke(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

// --- tests ---

func TestUpdate_NameOnly(t *testing.T) {
	repo, sessions := &mockUserStore{}, &mockSessionStore{}

	updated := &domain.User{UserID: "user-123", Name: "Alice B"}
	repo.On("Update", mock.Anything, "user-123", map[string]interface{}{"name": "Alice B"}).Return(nil)
	repo.On("Get", mock.Anything, "user-123").Return(updated, nil)

	name := "Alice B"
	u, err := NewService(repo, sessions).Update(context.Background(), "user-123", domain.UpdateUserRequest{Name: &name})

	require.NoError(t, err)
	assert.Equal(t, "Alice B", u.Name)
}

func TestUpdate_EmptyRequest_NoWrite(t *testing.T) {
	repo, sessions := &mockUserStore{}, &mockSessionStore{}

	repo.On("Get", mock.Anything, "user-123").Return(&domain.User{UserID: "user-123"}, nil)

	_, err := NewService(repo, sessions).Update(context.Background(), "user-123", domain.UpdateUserRequest{})

	require.NoError(t, err)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestDelete_RevokesSession(t *testing.T) {
	repo, sessions := &mockUserStore{}, &mockSessionStore{}

	repo.On("SoftDelete", mock.Anything, "user-123").Return(nil)
	sessions.On("Revoke", mock.Anything, "user-123").Return(nil)

	err := NewService(repo, sessions).Delete(context.Background(), "user-123")

	require.NoError(t, err)
	sessions.AssertCalled(t, "Revoke", mock.Anything, "user-123")
}
