package domain

// OTPRecord stores a single-use verification code.
// PK: otp_key, a purpose-scoped key such as "email-verify:a@x.com" or
// "password-reset:a@x.com". Writing a new record for the same key replaces
// the previous one, so at most one code is active per key.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type OTPRecord struct {
	Key       string `json:"otp_key" dynamodbav:"otp_key"`
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}
