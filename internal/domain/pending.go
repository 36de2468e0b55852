package domain

import "time"

// PendingRegistration holds a staged, not-yet-verified account.
// PK: email. ExpiresAt is a Unix timestamp used as DynamoDB TTL;
// an expired entry must be treated as absent even before DynamoDB
// physically removes it.
type PendingRegistration struct {
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	Name         string    `json:"name" dynamodbav:"name"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	ExpiresAt    int64     `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}
