package models

import "time"

// RefreshToken is the stored form of an issued refresh token. Only the
// SHA-256 hash of the token is kept.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	Expires   time.Time
	CreatedAt time.Time
}
