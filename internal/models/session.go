package models

import "time"

// Session is an authenticated identity with its provider tokens. Tokens are
// never serialized to clients.
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	IDToken      string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
}
