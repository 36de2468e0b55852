package domain

import "time"

// Session tracks the single current refresh token for a user.
// PK: user_id — one row per identity; a new login or refresh overwrites
// the row, which is what invalidates the previous refresh token.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type Session struct {
	UserID       string    `json:"user_id" dynamodbav:"user_id"`
	RefreshToken string    `json:"-" dynamodbav:"refresh_token"`
	ExpiresAt    int64     `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}
