package models

import "time"

// Credential is an authenticated Sensaphone.net session.
type Credential struct {
	Token     string    `json:"token" dynamodbav:"token"`
	AccountID int64     `json:"account_id" dynamodbav:"account_id"`
	IssuedAt  time.Time `json:"issued_at" dynamodbav:"issued_at"`
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"expires_at"`
}

// Valid reports whether the credential can still be used at now, keeping margin
// in reserve so a session never expires in the middle of a cycle.
func (c Credential) Valid(now time.Time, margin time.Duration) bool {
	if c.Token == "" || c.ExpiresAt.IsZero() {
		return false
	}
	return now.Before(c.ExpiresAt.Add(-margin))
}
