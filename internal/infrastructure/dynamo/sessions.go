package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/taskhive-api/internal/domain"
)

// SessionRepo tracks the single current refresh token per user.
// PK: user_id — Put overwrites the previous row, which is the mechanism that
// invalidates a rotated refresh token even while it is still within its own
// cryptographic expiry. No application-level locking: per-key overwrite
// atomicity comes from DynamoDB PutItem.
type SessionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSessionRepo(client *dynamodb.Client, tableName string) *SessionRepo {
	return &SessionRepo{client: client, tableName: tableName}
}

func (r *SessionRepo) Put(ctx context.Context, s *domain.Session) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *SessionRepo) Get(ctx context.Context, userID string) (*domain.Session, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("session not found: %w", domain.ErrNotFound)
	}
	var s domain.Session
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// IsCurrent reports whether token is the most recently stored refresh token
// for the user and has not yet passed the session TTL. DynamoDB TTL deletion
// is lazy, so expiry is checked here as well.
func (r *SessionRepo) IsCurrent(ctx context.Context, userID, token string) (bool, error) {
	s, err := r.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if s.RefreshToken != token {
		return false, nil
	}
	if s.ExpiresAt < time.Now().Unix() {
		return false, nil
	}
	return true, nil
}

// Revoke deletes the user's session; used on logout, password change and
// password reset.
func (r *SessionRepo) Revoke(ctx context.Context, userID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	return err
}
